package lists

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/errors"
	"github.com/maksimkurb/fw-ipsets/src/internal/items"
	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/utils"
)

// maxLineLength bounds a single source line; real entries are far shorter.
const maxLineLength = 64 * 1024

// ReadSource loads the desired members of a set from a file with one item per line.
//
// Blank lines and lines starting with '#' are skipped, as is anything after a '#'
// following an item. Duplicates collapse. When family is non-zero, items of the
// other IP version are rejected as parse errors.
func ReadSource(path string, kind items.Kind, family config.IPFamily) (items.Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSourceReadError(path, err)
	}
	defer utils.CloseOrWarn(file)

	result, err := ParseSource(file, path, kind, family)
	if err != nil {
		return nil, err
	}

	log.Debugf("Read %d items from %s", result.Len(), path)
	return result, nil
}

// ParseSource parses source lines from r. name identifies the source in errors.
func ParseSource(r io.Reader, name string, kind items.Kind, family config.IPFamily) (items.Set, error) {
	result := items.NewSet()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		text := stripComment(raw)
		if text == "" {
			continue
		}

		item, err := items.Parse(kind, text)
		if err != nil {
			return nil, errors.NewParseError(name, lineNo, raw, err)
		}
		if err := checkFamily(item, family); err != nil {
			return nil, errors.NewParseError(name, lineNo, raw, err)
		}
		result.Add(item)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.NewSourceReadError(name, err)
	}

	return result, nil
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	return line
}

func checkFamily(item items.Item, family config.IPFamily) error {
	switch family {
	case config.Ipv4:
		if !item.Is4() {
			return fmt.Errorf("IPv6 item in IPv4 set")
		}
	case config.Ipv6:
		if !item.Is6() {
			return fmt.Errorf("IPv4 item in IPv6 set")
		}
	}
	return nil
}
