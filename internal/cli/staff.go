package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/entities"
)

// passwordReader reads a password without echo when stdin is a terminal.
type passwordReader func(prompt string) (string, error)

func newStaffCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newStaffCreateCommand(rt))
	return cmd
}

func newStaffCreateCommand(rt *Runtime) *cobra.Command {
	var username, email, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account, prompting for its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readNewPassword(terminalPasswordReader(cmd.InOrStdin(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			svc := auth.NewService(app.DB.DB, rt.Config.Auth)
			staff, err := svc.CreateStaff(cmd.Context(), username, email, password, entities.StaffRole(role))
			if err != nil {
				return err
			}
			if app.Audit != nil {
				app.Audit.LogAuth(staff.ID, "Staff account created from CLI: "+staff.Username, "", "cli", true)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %q (id %d)\n", staff.Role, staff.Username, staff.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Login name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&role, "role", "r", string(entities.StaffRoleLibrarian), "Role: admin, librarian or viewer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readNewPassword asks twice and checks the entries match and are long enough.
func readNewPassword(read passwordReader) (string, error) {
	password, err := read("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) < auth.MinPasswordLength {
		return "", auth.ErrPasswordTooShort
	}
	confirm, err := read("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

// terminalPasswordReader masks input on a terminal and falls back to reading
// lines when stdin is piped.
func terminalPasswordReader(in io.Reader, prompt io.Writer) passwordReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return func(p string) (string, error) {
			fmt.Fprint(prompt, p)
			raw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(prompt)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(raw)), nil
		}
	}

	scanner := bufio.NewScanner(in)
	return func(string) (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}
}
