package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/shopfeed/internal/client"
)

func newAPICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Send raw authenticated requests",
		Long: `Send a request to any API path through the session pipeline.

The stored access token is attached and refreshed when it has expired.
Responses are printed as indented JSON.`,
		Example: `  shopfeed api get /users/me
  shopfeed api post /posts --data '{"body":"New mugs #sale"}'
  echo '{"body":"hi"}' | shopfeed api post /posts --data -`,
	}

	cmd.AddCommand(newAPIRequestCommand(http.MethodGet))
	cmd.AddCommand(newAPIRequestCommand(http.MethodPost))
	cmd.AddCommand(newAPIRequestCommand(http.MethodPut))
	cmd.AddCommand(newAPIRequestCommand(http.MethodDelete))

	return cmd
}

func newAPIRequestCommand(method string) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " PATH",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := getCliContext(cmd)

			body, err := readData(data, cmd.InOrStdin())
			if err != nil {
				return err
			}

			req, err := cli.Client.NewRequest(method, args[0], body)
			if err != nil {
				return err
			}

			resp, err := cli.Client.Send(cmd.Context(), req)
			if resp != nil {
				printJSON(cmd.OutOrStdout(), resp)
			}
			return err
		},
	}

	if method == http.MethodPost || method == http.MethodPut {
		cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body, or - to read stdin")
	}

	return cmd
}

// readData returns the request body for --data. Bodies must be valid JSON.
func readData(data string, stdin io.Reader) ([]byte, error) {
	if data == "" {
		return nil, nil
	}

	body := []byte(data)
	if data == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		body = b
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return body, nil
}

// printJSON writes a response body, indented when it is JSON
func printJSON(w io.Writer, resp *client.Response) {
	if len(resp.Body) == 0 {
		fmt.Fprintf(w, "HTTP %d\n", resp.StatusCode)
		return
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
		_, _ = w.Write(resp.Body)
		fmt.Fprintln(w)
		return
	}
	out.WriteByte('\n')
	_, _ = out.WriteTo(w)
}
