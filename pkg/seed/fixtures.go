// Package seed loads YAML fixtures into the record store through the
// services, so every fixture passes the same validation as API writes.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang-sql/civil"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// Fixtures is the root of a fixture file. Records refer to each other by
// natural key: users and contacts by email, enterprises by name and
// opportunities by title.
type Fixtures struct {
	Users         []UserFixture        `yaml:"users"`
	Enterprises   []EnterpriseFixture  `yaml:"enterprises"`
	Contacts      []ContactFixture     `yaml:"contacts"`
	Opportunities []OpportunityFixture `yaml:"opportunities"`
	Activities    []ActivityFixture    `yaml:"activities"`
}

type UserFixture struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

type EnterpriseFixture struct {
	Name      string   `yaml:"name"`
	Sector    string   `yaml:"sector,omitempty"`
	Revenue   *float64 `yaml:"revenue,omitempty"`
	Headcount *int     `yaml:"headcount,omitempty"`
	Address   string   `yaml:"address,omitempty"`
	Website   string   `yaml:"website,omitempty"`
	Owner     string   `yaml:"owner,omitempty"`
}

type ContactFixture struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Title      string `yaml:"title,omitempty"`
	Email      string `yaml:"email,omitempty"`
	Phone      string `yaml:"phone,omitempty"`
	Primary    bool   `yaml:"primary,omitempty"`
	Enterprise string `yaml:"enterprise,omitempty"`
	Owner      string `yaml:"owner,omitempty"`
}

type OpportunityFixture struct {
	Title         string   `yaml:"title"`
	Enterprise    string   `yaml:"enterprise"`
	Contact       string   `yaml:"contact,omitempty"`
	Status        string   `yaml:"status,omitempty"`
	Amount        *float64 `yaml:"amount,omitempty"`
	Probability   *int     `yaml:"probability,omitempty"`
	ExpectedClose string   `yaml:"expected_close,omitempty"`
	Owner         string   `yaml:"owner,omitempty"`
}

type ActivityFixture struct {
	Type        string `yaml:"type"`
	Subject     string `yaml:"subject"`
	Description string `yaml:"description,omitempty"`
	Due         string `yaml:"due,omitempty"`
	Done        bool   `yaml:"done,omitempty"`
	Enterprise  string `yaml:"enterprise,omitempty"`
	Contact     string `yaml:"contact,omitempty"`
	Opportunity string `yaml:"opportunity,omitempty"`
	Owner       string `yaml:"owner,omitempty"`
}

// LoadFile reads and checks a fixture file.
func LoadFile(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes fixtures from r and checks them. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse fixtures YAML: %w", err)
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Check verifies that every reference resolves within the file, natural keys
// are unique and dates and enums parse. Field rules (required names, ranges)
// are left to the services.
func (f *Fixtures) Check() error {
	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		key := emailKey(u.Email)
		if users[key] {
			return fmt.Errorf("users[%d]: duplicate email %q", i, u.Email)
		}
		users[key] = true
	}
	owner := func(where, email string) error {
		if email != "" && !users[emailKey(email)] {
			return fmt.Errorf("%s: unknown owner %q", where, email)
		}
		return nil
	}

	enterprises := make(map[string]bool, len(f.Enterprises))
	for i, e := range f.Enterprises {
		where := fmt.Sprintf("enterprises[%d]", i)
		if enterprises[e.Name] {
			return fmt.Errorf("%s: duplicate name %q", where, e.Name)
		}
		enterprises[e.Name] = true
		if err := owner(where, e.Owner); err != nil {
			return err
		}
	}

	contacts := make(map[string]bool, len(f.Contacts))
	for i, c := range f.Contacts {
		where := fmt.Sprintf("contacts[%d]", i)
		if c.Email != "" {
			key := emailKey(c.Email)
			if contacts[key] {
				return fmt.Errorf("%s: duplicate email %q", where, c.Email)
			}
			contacts[key] = true
		}
		if c.Enterprise != "" && !enterprises[c.Enterprise] {
			return fmt.Errorf("%s: unknown enterprise %q", where, c.Enterprise)
		}
		if err := owner(where, c.Owner); err != nil {
			return err
		}
	}

	opportunities := make(map[string]bool, len(f.Opportunities))
	for i, o := range f.Opportunities {
		where := fmt.Sprintf("opportunities[%d]", i)
		if opportunities[o.Title] {
			return fmt.Errorf("%s: duplicate title %q", where, o.Title)
		}
		opportunities[o.Title] = true
		if o.Enterprise != "" && !enterprises[o.Enterprise] {
			return fmt.Errorf("%s: unknown enterprise %q", where, o.Enterprise)
		}
		if o.Contact != "" && !contacts[emailKey(o.Contact)] {
			return fmt.Errorf("%s: unknown contact %q", where, o.Contact)
		}
		if o.Status != "" && !models.OpportunityStatus(o.Status).IsValid() {
			return fmt.Errorf("%s: unknown status %q", where, o.Status)
		}
		if _, err := parseDate(o.ExpectedClose); err != nil {
			return fmt.Errorf("%s: expected_close: %w", where, err)
		}
		if err := owner(where, o.Owner); err != nil {
			return err
		}
	}

	for i, a := range f.Activities {
		where := fmt.Sprintf("activities[%d]", i)
		if a.Enterprise != "" && !enterprises[a.Enterprise] {
			return fmt.Errorf("%s: unknown enterprise %q", where, a.Enterprise)
		}
		if a.Contact != "" && !contacts[emailKey(a.Contact)] {
			return fmt.Errorf("%s: unknown contact %q", where, a.Contact)
		}
		if a.Opportunity != "" && !opportunities[a.Opportunity] {
			return fmt.Errorf("%s: unknown opportunity %q", where, a.Opportunity)
		}
		if _, err := parseDate(a.Due); err != nil {
			return fmt.Errorf("%s: due: %w", where, err)
		}
		if err := owner(where, a.Owner); err != nil {
			return err
		}
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseDate parses YYYY-MM-DD. An empty string yields nil.
func parseDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &d, nil
}
