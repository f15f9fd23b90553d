package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// NewNodeCmd создаёт группу команд для узлов.
func NewNodeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Execute and manage nodes",
	}

	cmd.AddCommand(
		newNodeExecCmd(clientFn, outputFn),
		newNodeListCmd(clientFn, outputFn),
		newNodeCreateCmd(clientFn, outputFn),
		newNodeDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

// NewNodeTypesCmd создаёт команду со списком зарегистрированных типов.
func NewNodeTypesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "node-types",
		Short: "List registered node types",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			types, err := client.ListNodeTypes()
			if err != nil {
				return err
			}

			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t.Type, t.Function}
			}

			out.Print([]string{"TYPE", "FUNCTION"}, rows, types)
			return nil
		},
	}
}

var nodeHeaders = []string{"ID", "WORKFLOW", "TYPE", "X", "Y"}

func nodeRow(n NodeResponse) []string {
	return []string{
		strconv.FormatInt(n.ID, 10),
		strconv.FormatInt(n.WorkflowID, 10),
		n.NodeType,
		strconv.FormatFloat(n.PositionX, 'f', -1, 64),
		strconv.FormatFloat(n.PositionY, 'f', -1, 64),
	}
}

func newNodeExecCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var nodeID, nodeType string

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute the handler for a node type",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.ExecuteNode(nodeID, nodeType)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(result))
			for k := range result {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			rows := make([][]string, len(keys))
			for i, k := range keys {
				rows[i] = []string{k, fmt.Sprint(result[k])}
			}

			out.Print([]string{"KEY", "VALUE"}, rows, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "id", "", "Node id (required)")
	cmd.Flags().StringVar(&nodeType, "type", "", "Node type, e.g. process-1 (required)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newNodeListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListNodesOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			nodes, err := client.ListNodes(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(nodes))
			for i, n := range nodes {
				rows[i] = nodeRow(n)
			}

			out.Print(nodeHeaders, rows, nodes)
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.WorkflowID, "workflow", 0, "Filter by workflow ID")
	cmd.Flags().StringVar(&opts.NodeType, "type", "", "Filter by node type")

	return cmd
}

func newNodeCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateNodeRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a node in a workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			node, err := client.CreateNode(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Node created: %d", node.ID))
			out.Print(nodeHeaders, [][]string{nodeRow(*node)}, node)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.WorkflowID, "workflow", 0, "Workflow ID (required)")
	cmd.Flags().StringVar(&req.NodeType, "type", "", "Node type (required)")
	cmd.Flags().Float64Var(&req.PositionX, "x", 0, "X position")
	cmd.Flags().Float64Var(&req.PositionY, "y", 0, "Y position")
	cmd.MarkFlagRequired("workflow")
	cmd.MarkFlagRequired("type")

	return cmd
}

func newNodeDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteNode(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Node deleted: %s", args[0]))
			return nil
		},
	}
}
