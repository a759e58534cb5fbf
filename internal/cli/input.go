// Package cli handles cmd line input for debugging searches and completions in real-time
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/topicserve/internal/logger"
	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bastiangx/topicserve/pkg/search"
	"github.com/bastiangx/topicserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const help = `plain text   fuzzy search every term
:p <prefix>  prefix search
:c <prefix>  complete topic names
:t [filter]  list topic names
:q           quit`

// InputHandler reads queries line by line and prints what the index finds.
// Plain lines run a fuzzy search; lines starting with ':' are commands.
type InputHandler struct {
	idx          index.Searcher
	completer    suggest.ICompleter
	limit        int
	threshold    float64
	noFilter     bool
	requestCount int
	out          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(idx index.Searcher, completer suggest.ICompleter, limit int, threshold float64, noFilter bool, out io.Writer) *InputHandler {
	return &InputHandler{
		idx:       idx,
		completer: completer,
		limit:     limit,
		threshold: threshold,
		noFilter:  noFilter,
		out:       logger.NewWithWriter(out, ""),
	}
}

// Start runs the loop until input ends or :q is entered.
func (h *InputHandler) Start(in io.Reader) error {
	h.out.Print("TopicServe CLI")
	h.out.Print("type a query and press Enter (:h for help, :q or Ctrl+C to exit):")
	reader := bufio.NewReader(in)

	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" && !h.handleInput(line) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput dispatches one line. It returns false when the loop should stop.
func (h *InputHandler) handleInput(line string) bool {
	h.requestCount++
	log.Debugf("Request %d: %q", h.requestCount, line)

	if !strings.HasPrefix(line, ":") {
		h.fuzzySearch(line)
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":q", ":quit":
		return false
	case ":h", ":help":
		h.out.Print(help)
	case ":p":
		h.prefixSearch(arg)
	case ":c":
		h.complete(arg)
	case ":t":
		h.topics(arg)
	default:
		h.out.Errorf("Unknown command %s (:h for help)", cmd)
	}
	return true
}

func (h *InputHandler) accept(text string) bool {
	if text == "" {
		h.out.Error("Missing query")
		return false
	}
	// input filtering by default (unless --no-filter flag is used)
	if !h.noFilter && !utils.IsValidInput(text) {
		h.out.Warnf("No results found for '%s'", text)
		return false
	}
	return true
}

func (h *InputHandler) fuzzySearch(query string) {
	if !h.accept(query) {
		return
	}
	start := time.Now()
	results := search.Terms(h.idx, query, h.threshold)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)
	h.printRecords(query, results)
}

func (h *InputHandler) prefixSearch(prefix string) {
	if !h.accept(prefix) {
		return
	}
	start := time.Now()
	results := search.Prefix(h.idx, prefix)
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)
	h.printRecords(prefix, results)
}

func (h *InputHandler) complete(prefix string) {
	if !h.accept(prefix) {
		return
	}
	suggestions := h.completer.Complete(prefix, h.limit)
	if len(suggestions) == 0 {
		h.out.Warnf("No topics start with '%s'", prefix)
		return
	}
	for i, s := range suggestions {
		h.out.Printf("%2d. %-32s (%d records)", i+1, s.Word, s.Count)
	}
}

func (h *InputHandler) topics(pattern string) {
	matches := h.completer.Filter(pattern, h.limit)
	if len(matches) == 0 {
		h.out.Warnf("No topics match '%s'", pattern)
		return
	}
	for i, m := range matches {
		h.out.Printf("%2d. %s", i+1, highlight(m.Str, m.MatchedIndexes))
	}
}

func (h *InputHandler) printRecords(query string, results []index.TopicRecord) {
	if len(results) == 0 {
		h.out.Warnf("No topics found for '%s'", query)
		return
	}

	shown := results
	if h.limit > 0 && len(shown) > h.limit {
		shown = shown[:h.limit]
	}
	h.out.Printf("Found %d topics for '%s':", len(results), query)
	for i, rec := range shown {
		h.out.Printf("%2d. %s", i+1, formatRecord(rec))
	}
}

// formatRecord renders a record in its language color.
func formatRecord(rec index.TopicRecord) string {
	name := lipgloss.NewStyle().Foreground(lipgloss.Color(rec.Color)).Bold(true).Render(rec.Topic)
	if rec.IsSubtopic() {
		return fmt.Sprintf("%s  (%s > %s)", name, rec.Language, rec.ParentTopic)
	}
	return fmt.Sprintf("%s  (%s)", name, rec.Language)
}

var matchStyle = lipgloss.NewStyle().Underline(true)

// highlight underlines the bytes of s at the matched indexes.
func highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
