package shell

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maloquacious/contacts/internal/logger"
	"github.com/maloquacious/contacts/internal/store"
	"github.com/maloquacious/contacts/internal/store/file"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	b := file.New(afero.NewMemMapFs(), "/contacts.dat", file.Options{Logger: logger.Discard()})
	return store.Open(b, logger.Discard())
}

// run feeds the input lines to a fresh shell and returns its output.
func run(t *testing.T, s *store.Store, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(s, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	require.NoError(t, sh.Run())
	return out.String()
}

func TestAddAndList(t *testing.T) {
	s := newStore(t)

	out := run(t, s,
		"1", "Alice", "555-1234", "a@x.com", "1 Main St",
		"1", "Bob", "555-5678", "b@x.com", "2 Oak St",
		"5",
		"6",
	)

	assert.Contains(t, out, "Contact added successfully! (ID 1)")
	assert.Contains(t, out, "Contact added successfully! (ID 2)")
	assert.Contains(t, out, "Total Contacts: 2")
	assert.Contains(t, out, "Name: Alice")
	assert.Contains(t, out, "Address: 2 Oak St")
	assert.Contains(t, out, "Thank you for using Contact Management System!")
	assert.Equal(t, 2, s.Count())
}

func TestAddValidationError(t *testing.T) {
	s := newStore(t)

	out := run(t, s, "1", "Alice", "555-CALL", "a@x.com", "", "6")

	assert.Contains(t, out, "Error: phone number contains invalid characters")
	assert.Equal(t, 0, s.Count())
}

func TestUpdate(t *testing.T) {
	t.Run("updates existing contact", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Add("Alice", "555-1234", "a@x.com", "")
		require.NoError(t, err)

		out := run(t, s, "2", "1", "Alicia", "555-9999", "alicia@x.com", "9 Elm St", "6")

		assert.Contains(t, out, "Contact updated successfully!")
		c, err := s.Get(1)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", c.Name)
		assert.Equal(t, "9 Elm St", c.Address)
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t)
		out := run(t, s, "2", "9", "Bob", "555", "b@x.com", "", "6")
		assert.Contains(t, out, "Error: contact with ID 9 not found")
	})

	t.Run("non-numeric id", func(t *testing.T) {
		s := newStore(t)
		out := run(t, s, "2", "abc", "6")
		assert.Contains(t, out, "Invalid ID format. Please enter a number.")
	})
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantCount int
		wantOut   string
	}{
		{name: "yes", answer: "yes", wantCount: 1, wantOut: "Contact deleted successfully!"},
		{name: "y uppercase", answer: "Y", wantCount: 1, wantOut: "Contact deleted successfully!"},
		{name: "no", answer: "no", wantCount: 2, wantOut: "Deletion cancelled."},
		{name: "anything else", answer: "sure", wantCount: 2, wantOut: "Deletion cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			_, err := s.Add("Alice", "555-1234", "a@x.com", "")
			require.NoError(t, err)
			_, err = s.Add("Bob", "555-5678", "b@x.com", "")
			require.NoError(t, err)

			out := run(t, s, "3", "1", tt.answer, "6")

			assert.Contains(t, out, tt.wantOut)
			assert.Equal(t, tt.wantCount, s.Count())
		})
	}

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t)
		out := run(t, s, "3", "7", "y", "6")
		assert.Contains(t, out, "Error: contact with ID 7 not found")
	})
}

func TestSearch(t *testing.T) {
	s := newStore(t)
	for _, c := range []struct{ name, phone string }{
		{"Alice", "555-1234"},
		{"Bob", "020-7946"},
		{"KHALIL", "555-9876"},
	} {
		_, err := s.Add(c.name, c.phone, "x@x.com", "")
		require.NoError(t, err)
	}

	t.Run("by name", func(t *testing.T) {
		out := run(t, s, "4", "1", "ali", "6")
		assert.Contains(t, out, "Search Results for: Name: ali")
		assert.Contains(t, out, "Found 2 contact(s):")
		assert.Contains(t, out, "Name: Alice")
		assert.Contains(t, out, "Name: KHALIL")
		assert.NotContains(t, out, "Name: Bob")
	})

	t.Run("by phone", func(t *testing.T) {
		out := run(t, s, "4", "2", "7946", "6")
		assert.Contains(t, out, "Found 1 contact(s):")
		assert.Contains(t, out, "Name: Bob")
	})

	t.Run("no match", func(t *testing.T) {
		out := run(t, s, "4", "1", "zed", "6")
		assert.Contains(t, out, "No contacts found.")
	})

	t.Run("invalid type", func(t *testing.T) {
		out := run(t, s, "4", "3", "6")
		assert.Contains(t, out, "Invalid search type.")
	})

	t.Run("non-numeric type", func(t *testing.T) {
		out := run(t, s, "4", "name", "6")
		assert.Contains(t, out, "Error: Invalid input.")
	})
}

func TestMenuInputErrors(t *testing.T) {
	s := newStore(t)

	out := run(t, s, "x", "9", "", "6")

	assert.Equal(t, 2, strings.Count(out, "Invalid input. Please enter a number."))
	assert.Contains(t, out, "Invalid choice. Please select 1-6.")
}

func TestEmptyList(t *testing.T) {
	out := run(t, newStore(t), "5", "6")
	assert.Contains(t, out, "No contacts available.")
}

func TestEndOfInput(t *testing.T) {
	s := newStore(t)

	out := run(t, s, "1", "Alice")

	assert.Equal(t, 0, s.Count())
	assert.Contains(t, out, "Thank you for using Contact Management System!")
}

func TestLongInputLine(t *testing.T) {
	s := newStore(t)
	name := strings.Repeat("a", 100_000)

	out := run(t, s, "1", name, "555-1234", "a@x.com", "", "5", "6")

	assert.Contains(t, out, "Contact added successfully! (ID 1)")
	assert.Contains(t, out, "Total Contacts: 1")
	require.Equal(t, 1, s.Count())
	assert.Equal(t, name, s.List()[0].Name)
}

func TestReadError(t *testing.T) {
	var out bytes.Buffer
	sh := New(newStore(t), iotest.ErrReader(errors.New("device gone")), &out)

	err := sh.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}

func TestInteractivePauses(t *testing.T) {
	var out bytes.Buffer
	sh := New(newStore(t), strings.NewReader("5\n\n6\n"), &out)
	sh.SetInteractive(true)

	require.NoError(t, sh.Run())
	assert.Contains(t, out.String(), "CONTACT MANAGEMENT SYSTEM")
	assert.Equal(t, 1, strings.Count(out.String(), "Press Enter to continue..."))
}

func TestNotInteractiveForReaders(t *testing.T) {
	assert.False(t, IsTerminal(strings.NewReader("")))
}

func TestConfirmed(t *testing.T) {
	for answer, want := range map[string]bool{
		"yes":   true,
		"y":     true,
		" YES ": true,
		"Y":     true,
		"no":    false,
		"":      false,
		"yep":   false,
	} {
		assert.Equal(t, want, Confirmed(answer), "answer %q", answer)
	}
}

func TestRendererTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	got := r.Table([]store.Contact{{ID: 1, Name: "Alice", PhoneNumber: "555-1234", Email: "a@x.com"}})
	assert.Contains(t, got, "NAME")
	assert.Contains(t, got, "Alice")
	assert.Contains(t, got, "555-1234")
}
