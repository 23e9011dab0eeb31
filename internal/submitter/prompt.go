package submitter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"admission-intake/internal/common/validation"
	"admission-intake/internal/models"
)

// ErrInputClosed is returned when input ends before every field is collected.
var ErrInputClosed = errors.New("input closed before the application was complete")

// Prompter collects an application interactively.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	schema validation.JSONSchema
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		schema: validation.ApplicationSchema(),
	}
}

// Collect asks for each field in turn. Empty answers are asked again, and
// the course is asked again until it names an offered program.
func (p *Prompter) Collect() (models.ApplicationRecord, error) {
	var rec models.ApplicationRecord
	var err error

	fmt.Fprintln(p.out, "\n--- College Admission Application ---")

	if rec.Name, err = p.ask("name", "Full Name: ", "This field is required."); err != nil {
		return rec, err
	}
	if rec.Address, err = p.ask("address", "Address: ", "This field is required."); err != nil {
		return rec, err
	}
	if rec.Qualifications, err = p.ask("qualifications",
		"Educational Qualifications (e.g., BSc Computer Science): ", "This field is required."); err != nil {
		return rec, err
	}

	fmt.Fprintf(p.out, "Available Courses: %s\n", strings.Join(models.Courses, ", "))
	if rec.Course, err = p.ask("course", "Which course do you wish to enroll in?: ",
		"Invalid course name. Please select from the list."); err != nil {
		return rec, err
	}

	if rec.StartPeriod, err = p.ask("start_year_month",
		"Intended start year and month (e.g., 2026 Sep): ", "This field is required."); err != nil {
		return rec, err
	}
	return rec, nil
}

func (p *Prompter) ask(field, prompt, retry string) (string, error) {
	for {
		fmt.Fprint(p.out, prompt)
		line, err := p.in.ReadString('\n')
		value := strings.TrimSpace(line)
		if err != nil && (!errors.Is(err, io.EOF) || value == "") {
			if errors.Is(err, io.EOF) {
				return "", ErrInputClosed
			}
			return "", err
		}

		if errs := validation.ValidateField(p.schema, field, value); len(errs) > 0 {
			fmt.Fprintln(p.out, retry)
			if err != nil {
				return "", ErrInputClosed
			}
			continue
		}
		return value, nil
	}
}
