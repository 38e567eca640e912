// Package config reads the language configuration of the server: which
// grammar serves which documents and how completion is tuned for it.
//
//	languages:
//	  - id: statemachine
//	    extensions: [".sm"]
//	    grammar: grammars/statemachine.ebnf
//	    start: definitions
//	    preferredRules: [value]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/grammarls/completion"
	"github.com/dhamidi/grammarls/grammar"
)

var log = commonlog.GetLogger("grammarls.config")

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config lists the languages the server knows.
type Config struct {
	Languages []*Language `yaml:"languages"`
}

// Language configures one grammar. Zero values select the defaults:
// grammar.DefaultSkip, completion.DefaultMaxDepth and
// completion.DefaultMaxVisits.
type Language struct {
	ID         string   `yaml:"id"`
	Extensions []string `yaml:"extensions"`
	Grammar    string   `yaml:"grammar"`
	Start      string   `yaml:"start"`
	Skip       []string `yaml:"skip"`

	// IgnoredTokens are never offered. Literals may be written with or
	// without their quotes.
	IgnoredTokens []string `yaml:"ignoredTokens"`
	// PreferredRules are offered as a whole instead of their first tokens.
	PreferredRules []string `yaml:"preferredRules"`

	TypedPrefix     bool `yaml:"typedPrefix"`
	FallbackToStart bool `yaml:"fallbackToStart"`
	// NamedTokens also offers token productions such as ID, by name.
	NamedTokens bool `yaml:"namedTokens"`

	MaxDepth          int      `yaml:"maxDepth"`
	MaxVisits         int      `yaml:"maxVisits"`
	TriggerCharacters []string `yaml:"triggerCharacters"`
}

// Load reads the configuration in filename. Relative grammar paths are
// resolved against the directory of filename.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data), filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	log.Infof("loaded %d languages from %s", len(cfg.Languages), filename)
	return cfg, nil
}

// Parse decodes and validates a configuration. Relative grammar paths are
// resolved against dir unless dir is empty.
func Parse(r io.Reader, dir string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, lang := range cfg.Languages {
		if lang == nil {
			continue
		}
		lang.SetDefaults()
		if dir != "" && lang.Grammar != "" && !filepath.IsAbs(lang.Grammar) {
			lang.Grammar = filepath.Join(dir, lang.Grammar)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills the zero settings of l with their defaults.
func (l *Language) SetDefaults() {
	if l.Skip == nil {
		l.Skip = grammar.DefaultSkip
	}
	if l.MaxDepth == 0 {
		l.MaxDepth = completion.DefaultMaxDepth
	}
	if l.MaxVisits == 0 {
		l.MaxVisits = completion.DefaultMaxVisits
	}
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs error
	if len(c.Languages) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%w: no languages", ErrInvalid))
	}
	ids := make(map[string]int)
	exts := make(map[string]string)
	for i, lang := range c.Languages {
		if lang == nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: languages[%d]: empty entry", ErrInvalid, i))
			continue
		}
		name := lang.ID
		if name == "" {
			name = fmt.Sprintf("languages[%d]", i)
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: missing id", ErrInvalid, name))
		} else if j, dup := ids[lang.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: duplicate id (also languages[%d])", ErrInvalid, name, j))
		} else {
			ids[lang.ID] = i
		}
		if lang.Grammar == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: missing grammar", ErrInvalid, name))
		}
		if lang.MaxDepth < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: negative maxDepth %d", ErrInvalid, name, lang.MaxDepth))
		}
		if lang.MaxVisits < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: negative maxVisits %d", ErrInvalid, name, lang.MaxVisits))
		}
		for _, ext := range lang.Extensions {
			if !strings.HasPrefix(ext, ".") {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: extension %q must start with a dot", ErrInvalid, name, ext))
				continue
			}
			if other, dup := exts[ext]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: extension %s already used by %s", ErrInvalid, name, ext, other))
				continue
			}
			exts[ext] = name
		}
	}
	return errs
}

// Find returns the language for a document: by languageID when one
// matches, otherwise by the extension of path.
func (c *Config) Find(languageID, path string) (*Language, bool) {
	for _, lang := range c.Languages {
		if languageID != "" && lang.ID == languageID {
			return lang, true
		}
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, false
	}
	for _, lang := range c.Languages {
		for _, e := range lang.Extensions {
			if e == ext {
				return lang, true
			}
		}
	}
	return nil, false
}
