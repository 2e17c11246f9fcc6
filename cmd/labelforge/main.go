package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
)

var (
	app     = kingpin.New("labelforge", "Annotation task lifecycle tool")
	apiAddr = app.Flag("addr", "Server address").Default("http://localhost:3200").Envar("LABELFORGE_ADDR").String()
	apiUser = app.Flag("user", "Acting user ID").Envar("LABELFORGE_USER").String()

	listCmd      = app.Command("list", "List tasks")
	listProject  = listCmd.Flag("project", "Filter by project ID").String()
	listWorkflow = listCmd.Flag("workflow", "Filter by workflow ID").String()
	listStatus   = listCmd.Flag("status", "Filter by status").String()

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().String()

	startCmd = app.Command("start", "Start working on a task")
	startID  = startCmd.Arg("id", "Task ID").Required().String()

	completeCmd = app.Command("complete", "Complete a task")
	completeID  = completeCmd.Arg("id", "Task ID").Required().String()

	suspendCmd = app.Command("suspend", "Suspend a task")
	suspendID  = suspendCmd.Arg("id", "Task ID").Required().String()

	vetoCmd    = app.Command("veto", "Veto a completed task back to annotation")
	vetoID     = vetoCmd.Arg("id", "Task ID").Required().String()
	vetoReason = vetoCmd.Flag("reason", "Veto reason").String()

	eventsCmd = app.Command("events", "Show the audit trail of a task")
	eventsID  = eventsCmd.Arg("id", "Task ID").Required().String()
)

type taskView struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	StageID       string     `json:"stage_id"`
	AssetID       string     `json:"asset_id"`
	Status        string     `json:"status"`
	DerivedStatus string     `json:"derived_status"`
	AssigneeID    string     `json:"assignee_id"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at"`
}

type eventView struct {
	Category     string    `json:"category"`
	Detail       string    `json:"detail"`
	ActingUserID string    `json:"acting_user_id"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	CreatedAt    time.Time `json:"created_at"`
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch command {
	case listCmd.FullCommand():
		err = handleList()
	case showCmd.FullCommand():
		err = handleShow(*showID)
	case startCmd.FullCommand():
		err = handleStatusChange(*startID, "IN_PROGRESS")
	case completeCmd.FullCommand():
		err = handleStatusChange(*completeID, "COMPLETED")
	case suspendCmd.FullCommand():
		err = handleStatusChange(*suspendID, "SUSPENDED")
	case vetoCmd.FullCommand():
		err = handleVeto(*vetoID, *vetoReason)
	case eventsCmd.FullCommand():
		err = handleEvents(*eventsID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func call(method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, *apiAddr+"/api"+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiUser != "" {
		req.Header.Set("X-User-ID", *apiUser)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, resp.Status)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func handleList() error {
	path := "/tasks?"
	q := make([]byte, 0, 64)
	add := func(k, v string) {
		if v == "" {
			return
		}
		if len(q) > 0 {
			q = append(q, '&')
		}
		q = append(q, (k + "=" + v)...)
	}
	add("project_id", *listProject)
	add("workflow_id", *listWorkflow)
	add("status", *listStatus)

	var out struct {
		Tasks []taskView `json:"tasks"`
	}
	if err := call(http.MethodGet, path+string(q), nil, &out); err != nil {
		return err
	}
	if len(out.Tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	for _, t := range out.Tasks {
		fmt.Printf("%s  %s  %s\n", t.ID, statusColor(t.DerivedStatus), t.AssetID)
	}
	return nil
}

func handleShow(id string) error {
	var out struct {
		Task taskView `json:"task"`
	}
	if err := call(http.MethodGet, "/tasks/"+id, nil, &out); err != nil {
		return err
	}
	t := out.Task
	fmt.Printf("ID:       %s\n", t.ID)
	fmt.Printf("Project:  %s\n", t.ProjectID)
	fmt.Printf("Stage:    %s\n", t.StageID)
	fmt.Printf("Asset:    %s\n", t.AssetID)
	fmt.Printf("Status:   %s\n", statusColor(t.DerivedStatus))
	if t.AssigneeID != "" {
		fmt.Printf("Assignee: %s\n", t.AssigneeID)
	}
	if t.ArchivedAt != nil {
		fmt.Printf("Archived: %s\n", t.ArchivedAt.Format(time.RFC3339))
	}
	fmt.Printf("Updated:  %s\n", t.UpdatedAt.Format(time.RFC3339))
	return nil
}

func handleStatusChange(id, status string) error {
	var out struct {
		Task taskView `json:"task"`
	}
	req := map[string]any{"status": status}
	if err := call(http.MethodPost, "/tasks/"+id+"/status", req, &out); err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", out.Task.ID, statusColor(out.Task.DerivedStatus))
	return nil
}

func handleVeto(id, reason string) error {
	var out struct {
		Task taskView `json:"task"`
	}
	req := map[string]any{"reason": reason}
	if err := call(http.MethodPost, "/tasks/"+id+"/veto", req, &out); err != nil {
		return err
	}
	fmt.Printf("%s vetoed, now %s in stage %s\n", out.Task.ID, statusColor(out.Task.DerivedStatus), out.Task.StageID)
	return nil
}

func handleEvents(id string) error {
	var out struct {
		Events []eventView `json:"events"`
	}
	if err := call(http.MethodGet, "/tasks/"+id+"/events", nil, &out); err != nil {
		return err
	}
	if len(out.Events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}
	for _, ev := range out.Events {
		line := fmt.Sprintf("%s  %s -> %s  by %s",
			ev.CreatedAt.Format(time.RFC3339), ev.FromStatus, ev.ToStatus, ev.ActingUserID)
		if ev.Detail != "" {
			line += "  (" + ev.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func statusColor(status string) string {
	switch status {
	case "IN_PROGRESS":
		return color.New(color.FgCyan).Sprint(status)
	case "COMPLETED":
		return color.New(color.FgGreen).Sprint(status)
	case "SUSPENDED", "DEFERRED":
		return color.New(color.FgYellow).Sprint(status)
	case "VETOED", "CHANGES_REQUIRED", "ARCHIVED":
		return color.New(color.FgRed).Sprint(status)
	default:
		return status
	}
}
