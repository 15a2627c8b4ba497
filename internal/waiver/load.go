package waiver

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// expiresLayout is the date format accepted in the expires field.
const expiresLayout = "2006-01-02"

type fileDoc struct {
	Metadata struct {
		Tool string `toml:"tool"`
	} `toml:"metadata"`
	Waivers []Waiver `toml:"waiver"`
}

// Load reads a TOML acceptance list. Unparseable TOML is fatal; a
// malformed entry is skipped and reported so the remaining entries still
// apply.
func Load(path string) (*File, []*ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read waiver file: %w", err)
	}
	return Parse(string(data), path)
}

// Parse decodes an acceptance list from TOML text. The path is used only
// for error reporting.
func Parse(data, path string) (*File, []*ValidationError, error) {
	var doc fileDoc
	if _, err := toml.Decode(data, &doc); err != nil {
		return nil, nil, &ValidationError{Path: path, Index: -1, Reason: fmt.Sprintf("invalid TOML: %v", err)}
	}

	f := &File{Tool: doc.Metadata.Tool, Path: path}
	var errs []*ValidationError
	for i := range doc.Waivers {
		if err := validate(&doc.Waivers[i], path, i); err != nil {
			errs = append(errs, err)
			continue
		}
		f.Waivers = append(f.Waivers, doc.Waivers[i])
	}
	return f, errs, nil
}

func validate(w *Waiver, path string, index int) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Path: path, Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	if !validType(w.Type) {
		return fail("invalid type %q (must be hash, id, pattern or file)", w.Type)
	}
	if w.payload() == "" {
		return fail("pattern must be a non-empty string")
	}
	if w.Reason == "" {
		return fail("reason must be a non-empty string")
	}
	if w.Author == "" {
		return fail("author must be a non-empty string")
	}
	if w.Date == "" {
		return fail("date must be a non-empty string")
	}
	if w.Type == TypePattern {
		if _, err := regexp.Compile(w.Pattern); err != nil {
			return fail("invalid regex pattern: %v", err)
		}
	}
	if w.Expires != "" {
		if _, err := time.Parse(expiresLayout, w.Expires); err != nil {
			return fail("invalid expires date %q (want YYYY-MM-DD)", w.Expires)
		}
	}
	return nil
}
