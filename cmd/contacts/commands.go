package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maloquacious/contacts/internal/export"
	"github.com/maloquacious/contacts/internal/shell"
	"github.com/maloquacious/contacts/internal/store"
)

func newAddCmd(a *app) *cobra.Command {
	var name, phone, email, address string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.open()
			c, err := s.Add(name, phone, email, address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), shell.NewRenderer(cmd.OutOrStdout()).Card(c))
			return saveResult(s)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "contact name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number (digits, spaces, - ( ) +)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&address, "address", "", "postal address")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var name, phone, email, address string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a contact; fields not given keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := a.open()
			cur, err := s.Get(id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				cur.Name = name
			}
			if flags.Changed("phone") {
				cur.PhoneNumber = phone
			}
			if flags.Changed("email") {
				cur.Email = email
			}
			if flags.Changed("address") {
				cur.Address = address
			}

			c, err := s.Update(id, cur.Name, cur.PhoneNumber, cur.Email, cur.Address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), shell.NewRenderer(cmd.OutOrStdout()).Card(c))
			return saveResult(s)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&address, "address", "", "new postal address")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s := a.open()
			c, err := s.Get(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Delete contact %d (%s)? (yes/no): ", c.ID, c.Name)
				answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				if !shell.Confirmed(answer) {
					fmt.Fprintln(out, "Deletion cancelled.")
					return nil
				}
			}

			if err := s.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Contact %d deleted.\n", id)
			return saveResult(s)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search contacts by name (case-insensitive) or phone number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.open()
			var found []store.Contact
			if cmd.Flags().Changed("name") {
				found = s.SearchByName(name)
			} else {
				found = s.SearchByPhone(phone)
			}

			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No contacts found.")
				return nil
			}
			fmt.Fprintf(out, "Found %d contact(s):\n", len(found))
			fmt.Fprintln(out, shell.NewRenderer(out).Cards(found))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "substring of the name")
	cmd.Flags().StringVar(&phone, "phone", "", "substring of the phone number")
	cmd.MarkFlagsMutuallyExclusive("name", "phone")
	cmd.MarkFlagsOneRequired("name", "phone")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeContacts(cmd.OutOrStdout(), a.open().List(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, cards, json or yaml")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where contacts are stored and how many there are",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.open()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data file:  %s\n", a.backend.Path())
			fmt.Fprintf(out, "Backend:    %s\n", a.cfg.Backend)

			fi, err := os.Stat(a.backend.Path())
			switch {
			case err == nil:
				fmt.Fprintf(out, "Size:       %s\n", humanize.Bytes(uint64(fi.Size())))
				fmt.Fprintf(out, "Modified:   %s\n", humanize.Time(fi.ModTime()))
			case os.IsNotExist(err):
				fmt.Fprintln(out, "Size:       (not created yet)")
			default:
				return fmt.Errorf("failed to stat data file: %w", err)
			}

			fmt.Fprintf(out, "Contacts:   %s\n", humanize.Comma(int64(s.Count())))
			fmt.Fprintf(out, "Next ID:    %d\n", s.NextID())
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE.xlsx",
		Short: "Export all contacts to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts := a.open().List()
			if err := export.XLSX(args[0], contacts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contact(s) to %s\n", len(contacts), args[0])
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the data file can be read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := a.backend.CheckState()
			if err != nil {
				return fmt.Errorf("verify %s: %w", a.backend.Path(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.backend.Path(), state)
			switch state {
			case store.StateMissing, store.StateReady:
				return nil
			}
			return fmt.Errorf("data file %s is not usable (%s)", a.backend.Path(), state)
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs neither config nor storage
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "contacts %s\n", version.String())
			if buildDate != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", buildDate)
			}
		},
	}
}

// writeContacts renders contacts in the named format.
func writeContacts(w io.Writer, contacts []store.Contact, format string) error {
	switch format {
	case "table":
		if len(contacts) == 0 {
			fmt.Fprintln(w, "No contacts available.")
			return nil
		}
		fmt.Fprintln(w, shell.NewRenderer(w).Table(contacts))
	case "cards":
		if len(contacts) == 0 {
			fmt.Fprintln(w, "No contacts available.")
			return nil
		}
		fmt.Fprintln(w, shell.NewRenderer(w).Cards(contacts))
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(contacts)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(contacts); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, cards, json or yaml)", format)
	}
	return nil
}

// saveResult turns a failed save into a command error so scripts see a non-zero exit.
func saveResult(s *store.Store) error {
	if err := s.SaveErr(); err != nil {
		return fmt.Errorf("change not saved: %w", err)
	}
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid contact ID %q: must be a number", arg)
	}
	return id, nil
}
