package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWorkflowSaveCmd(clientFn, outputFn),
		newWorkflowLoadCmd(clientFn, outputFn),
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

var workflowHeaders = []string{"ID", "NAME", "NODES", "EDGES", "CREATED"}

func workflowRow(wf WorkflowResponse) []string {
	return []string{
		strconv.FormatInt(wf.ID, 10),
		wf.Name,
		strconv.Itoa(len(wf.Nodes)),
		strconv.Itoa(len(wf.Edges)),
		wf.CreatedAt,
	}
}

// stringField достаёт строковое поле узла редактора.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func newWorkflowSaveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, file string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a graph exported from the editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read graph file: %w", err)
			}

			var g Graph
			if err := json.Unmarshal(data, &g); err != nil {
				return fmt.Errorf("graph file is not valid JSON: %w", err)
			}
			if name == "" {
				name = g.Name
			}

			resp, err := client.SaveWorkflow(name, g)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("%s: %d", resp.Message, resp.WorkflowID))
			if out.JSONMode() {
				out.JSON(resp)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (defaults to the name in the file)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to graph JSON with nodes and edges (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newWorkflowLoadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "load [NAME]",
		Short: "Load a saved graph by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			g, err := client.LoadWorkflow(name)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NODE TYPE", "FUNCTION"}
			rows := make([][]string, len(g.Nodes))
			for i, n := range g.Nodes {
				rows[i] = []string{stringField(n, "id"), stringField(n, "nodeType"), stringField(n, "function")}
			}

			out.Print(headers, rows, g)
			return nil
		},
	}
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows(search)
			if err != nil {
				return err
			}

			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = workflowRow(wf)
			}

			out.Print(workflowHeaders, rows, workflows)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by name substring")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(workflowHeaders, [][]string{workflowRow(*wf)}, wf)
			return nil
		},
	}
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow and its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteWorkflow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}
