// Package shell implements the numbered-menu contact manager loop.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/maloquacious/contacts/internal/store"
)

const (
	choiceAdd = iota + 1
	choiceUpdate
	choiceDelete
	choiceSearch
	choiceList
	choiceExit
)

var errNotNumber = errors.New("not a number")

// Shell reads menu choices from in and renders results to out.
type Shell struct {
	store       *store.Store
	in          *bufio.Reader
	out         io.Writer
	r           *Renderer
	interactive bool
}

// New creates a Shell. It is interactive when in is a terminal.
func New(s *store.Store, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		store:       s,
		in:          bufio.NewReader(in),
		out:         out,
		r:           NewRenderer(out),
		interactive: IsTerminal(in),
	}
}

// SetInteractive overrides terminal detection. Interactive shells show the
// welcome banner and pause after each action.
func (sh *Shell) SetInteractive(v bool) {
	sh.interactive = v
}

// IsTerminal reports whether r is a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run loops until the user exits or input ends.
func (sh *Shell) Run() error {
	if sh.interactive {
		sh.println("\n" + sh.r.Box(sh.r.Title("CONTACT MANAGEMENT SYSTEM")))
	}

	for {
		sh.menu()
		choice, err := sh.promptInt("\nEnter your choice (1-6): ")
		if err != nil && !errors.Is(err, errNotNumber) {
			return sh.finish(err)
		}

		switch {
		case errors.Is(err, errNotNumber):
			sh.println(sh.r.Failure("Invalid input. Please enter a number."))
			err = nil
		case choice == choiceAdd:
			err = sh.add()
		case choice == choiceUpdate:
			err = sh.update()
		case choice == choiceDelete:
			err = sh.delete()
		case choice == choiceSearch:
			err = sh.search()
		case choice == choiceList:
			sh.list()
		case choice == choiceExit:
			sh.goodbye()
			return nil
		default:
			sh.println(sh.r.Failure("Invalid choice. Please select 1-6."))
		}

		if err != nil {
			return sh.finish(err)
		}
		sh.pause()
	}
}

func (sh *Shell) menu() {
	items := []string{
		sh.r.Title("MAIN MENU"),
		"",
		"1. Add New Contact",
		"2. Update Contact",
		"3. Delete Contact",
		"4. Search Contact",
		"5. Display All Contacts",
		"6. Exit",
	}
	sh.println("\n" + sh.r.Box(strings.Join(items, "\n")))
	sh.printf("   Total Contacts: %d\n", sh.store.Count())
}

func (sh *Shell) add() error {
	sh.heading("ADD NEW CONTACT")

	name, phone, email, address, err := sh.promptFields("Enter")
	if err != nil {
		return err
	}

	c, err := sh.store.Add(name, phone, email, address)
	if err != nil {
		sh.println("\n" + sh.r.Failure("Error: %s", err))
		return nil
	}
	sh.println("\n" + sh.r.Success("Contact added successfully! (ID %d)", c.ID))
	sh.warnUnsaved()
	return nil
}

func (sh *Shell) update() error {
	sh.heading("UPDATE CONTACT")

	id, err := sh.promptInt("Enter Contact ID to update: ")
	if errors.Is(err, errNotNumber) {
		sh.println("\n" + sh.r.Failure("Error: Invalid ID format. Please enter a number."))
		return nil
	}
	if err != nil {
		return err
	}

	name, phone, email, address, err := sh.promptFields("Enter New")
	if err != nil {
		return err
	}

	if _, err := sh.store.Update(id, name, phone, email, address); err != nil {
		sh.println("\n" + sh.r.Failure("Error: %s", err))
		return nil
	}
	sh.println("\n" + sh.r.Success("Contact updated successfully!"))
	sh.warnUnsaved()
	return nil
}

func (sh *Shell) delete() error {
	sh.heading("DELETE CONTACT")

	id, err := sh.promptInt("Enter Contact ID to delete: ")
	if errors.Is(err, errNotNumber) {
		sh.println("\n" + sh.r.Failure("Error: Invalid ID format. Please enter a number."))
		return nil
	}
	if err != nil {
		return err
	}

	answer, err := sh.prompt("Are you sure you want to delete this contact? (yes/no): ")
	if err != nil {
		return err
	}
	if !Confirmed(answer) {
		sh.println("\n" + sh.r.Failure("Deletion cancelled."))
		return nil
	}

	if err := sh.store.Delete(id); err != nil {
		sh.println("\n" + sh.r.Failure("Error: %s", err))
		return nil
	}
	sh.println("\n" + sh.r.Success("Contact deleted successfully!"))
	sh.warnUnsaved()
	return nil
}

func (sh *Shell) search() error {
	sh.heading("SEARCH CONTACT")
	sh.println("1. Search by Name")
	sh.println("2. Search by Phone Number")

	kind, err := sh.promptInt("\nEnter search type (1-2): ")
	if errors.Is(err, errNotNumber) {
		sh.println("\n" + sh.r.Failure("Error: Invalid input."))
		return nil
	}
	if err != nil {
		return err
	}

	switch kind {
	case 1:
		term, err := sh.prompt("Enter name to search: ")
		if err != nil {
			return err
		}
		sh.results(sh.store.SearchByName(term), "Name: "+strings.TrimSpace(term))
	case 2:
		term, err := sh.prompt("Enter phone number to search: ")
		if err != nil {
			return err
		}
		sh.results(sh.store.SearchByPhone(term), "Phone: "+strings.TrimSpace(term))
	default:
		sh.println(sh.r.Failure("Invalid search type."))
	}
	return nil
}

func (sh *Shell) results(found []store.Contact, criteria string) {
	rule := strings.Repeat("-", 60)
	sh.println("\n" + rule)
	sh.println("Search Results for: " + criteria)
	sh.println(rule)

	if len(found) == 0 {
		sh.println("No contacts found.")
		return
	}
	sh.printf("Found %d contact(s):\n\n", len(found))
	sh.println(sh.r.Cards(found))
}

func (sh *Shell) list() {
	sh.heading("ALL CONTACTS")

	all := sh.store.List()
	if len(all) == 0 {
		sh.println("\n" + sh.r.Muted("No contacts available. Add some contacts to get started!"))
		return
	}
	sh.printf("\nTotal Contacts: %d\n\n", len(all))
	sh.println(sh.r.Cards(all))
}

// finish ends the loop after a read error. End of input is a normal exit.
func (sh *Shell) finish(err error) error {
	sh.goodbye()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (sh *Shell) goodbye() {
	sh.println("\n" + sh.r.Box("Thank you for using Contact Management System!"))
}

// warnUnsaved reports a failed save after a mutation.
func (sh *Shell) warnUnsaved() {
	if err := sh.store.SaveErr(); err != nil {
		sh.println(sh.r.Failure("Warning: change kept in memory only, save failed: %s", err))
	}
}

func (sh *Shell) pause() {
	if !sh.interactive {
		return
	}
	sh.printf("\nPress Enter to continue...")
	sh.readLine()
}

func (sh *Shell) heading(s string) {
	rule := strings.Repeat("=", 60)
	sh.println("\n" + rule)
	sh.println("    " + sh.r.Title(s))
	sh.println(rule)
}

func (sh *Shell) promptFields(verb string) (name, phone, email, address string, err error) {
	if name, err = sh.prompt(verb + " Name: "); err != nil {
		return
	}
	if phone, err = sh.prompt(verb + " Phone Number: "); err != nil {
		return
	}
	if email, err = sh.prompt(verb + " Email: "); err != nil {
		return
	}
	address, err = sh.prompt(verb + " Address: ")
	return
}

func (sh *Shell) prompt(label string) (string, error) {
	sh.printf("%s", label)
	line, err := sh.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (sh *Shell) promptInt(label string) (int, error) {
	s, err := sh.prompt(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotNumber
	}
	return n, nil
}

// readLine returns the next line however long it is. A final line without
// a newline is returned before io.EOF.
func (sh *Shell) readLine() (string, error) {
	line, err := sh.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.out, s)
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

// Confirmed reports whether answer is an explicit yes.
func Confirmed(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	}
	return false
}
