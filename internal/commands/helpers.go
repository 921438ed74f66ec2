package commands

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// PrintJSON pretty-prints a value as JSON.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}
	fmt.Fprintln(w, pretty.String())
	return nil
}

// ConfirmAction prompts the user to type 'yes' to continue.
// Returns true if confirmed, false otherwise.
func ConfirmAction(prompt string) bool {
	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(confirm)

	return confirm == "yes"
}
