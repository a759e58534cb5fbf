package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/topicserve/internal/logger"
	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/config"
	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bastiangx/topicserve/pkg/search"
	"github.com/bastiangx/topicserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// RebuildFunc produces a fresh index, typically by reloading the dataset and
// saving a new snapshot.
type RebuildFunc func(ctx context.Context) (*index.Index, error)

// Server handles the msgpack IPC for topic search
type Server struct {
	idx       *index.Index
	completer *suggest.Completer
	mu        sync.RWMutex

	config    *config.Config
	rebuild   RebuildFunc
	requests  atomic.Int64
	decoder   *msgpack.Decoder
	encoder   *msgpack.Encoder
	writeLock sync.Mutex
	log       *log.Logger
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(idx *index.Index, cfg *config.Config, rebuild RebuildFunc) *Server {
	return NewServerWithIO(idx, cfg, rebuild, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing responses to w
func NewServerWithIO(idx *index.Index, cfg *config.Config, rebuild RebuildFunc, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		idx:       idx,
		completer: suggest.FromIndex(idx),
		config:    cfg,
		rebuild:   rebuild,
		decoder:   msgpack.NewDecoder(r),
		encoder:   msgpack.NewEncoder(w),
		log:       logger.New("server"),
	}
}

// Start processes requests until the input ends or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting msgpack server.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		// decode the whole message first so a bad request never desyncs the stream
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input closed, stopping server.")
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "invalid msgpack request", 400)
			continue
		}
		s.requests.Add(1)
		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	switch req.Op {
	case OpSearch:
		s.handleSearch(req)
	case OpComplete:
		s.handleComplete(req)
	case OpTopics:
		s.handleTopics(req)
	case OpStats:
		s.handleStats(req)
	case OpRebuild:
		s.handleRebuild(ctx, req)
	case "":
		s.sendError(req.ID, "missing 'op' field", 400)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %s", req.Op), 400)
	}
}

// current returns the active index and completer
func (s *Server) current() (*index.Index, *suggest.Completer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx, s.completer
}

// limit clamps the requested result count to [1, max_limit]; zero means max_limit
func (s *Server) limit(requested int) int {
	maxLimit := s.config.Server.MaxLimit
	if requested <= 0 || requested > maxLimit {
		return maxLimit
	}
	return requested
}

// validateText applies the configured length bounds and the input filter
func (s *Server) validateText(field, text string) error {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return fmt.Errorf("missing '%s' parameter", field)
	}
	if n < s.config.Server.MinPrefix {
		return fmt.Errorf("%s must be at least %d characters", field, s.config.Server.MinPrefix)
	}
	if n > s.config.Server.MaxPrefix {
		return fmt.Errorf("%s exceeds maximum length of %d characters", field, s.config.Server.MaxPrefix)
	}
	if s.config.Server.EnableFilter && !utils.IsValidInput(text) {
		return fmt.Errorf("%s contains characters that never match a topic", field)
	}
	return nil
}

func (s *Server) handleSearch(req Request) {
	if err := s.validateText("q", req.Query); err != nil {
		s.log.Debugf("Rejected search %s: %v", req.ID, err)
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.config.Index.FuzzyThreshold
	}
	if threshold < 0 || threshold > 1 {
		s.sendError(req.ID, fmt.Sprintf("threshold %v outside [0, 1]", threshold), 400)
		return
	}

	idx, _ := s.current()
	start := time.Now()
	var results []index.TopicRecord
	if req.Fuzzy {
		results = search.Terms(idx, req.Query, threshold)
	} else {
		results = search.Prefix(idx, req.Query)
	}
	if limit := s.limit(req.Limit); len(results) > limit {
		results = results[:limit]
	}
	elapsed := time.Since(start)

	s.log.Debugf("search %q fuzzy=%v: %d results in %v", req.Query, req.Fuzzy, len(results), elapsed)
	s.sendResponse(SearchResponse{
		ID:        req.ID,
		Results:   results,
		Count:     len(results),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleComplete(req Request) {
	if err := s.validateText("prefix", req.Prefix); err != nil {
		s.log.Debugf("Rejected completion %s: %v", req.ID, err)
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	_, completer := s.current()
	start := time.Now()
	suggestions := completer.Complete(req.Prefix, s.limit(req.Limit))
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(suggestions))
	out := make([]CompletionSuggestion, len(suggestions))
	for i, sug := range suggestions {
		out[i] = CompletionSuggestion{Word: sug.Word, Rank: ranks[i]}
	}

	s.sendResponse(CompletionResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleTopics(req Request) {
	if utf8.RuneCountInString(req.Filter) > s.config.Server.MaxPrefix {
		s.sendError(req.ID, fmt.Sprintf("filter exceeds maximum length of %d characters", s.config.Server.MaxPrefix), 400)
		return
	}

	_, completer := s.current()
	start := time.Now()
	matches := completer.Filter(req.Filter, s.limit(req.Limit))
	elapsed := time.Since(start)

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Str
	}
	s.sendResponse(TopicsResponse{
		ID:        req.ID,
		Topics:    names,
		Count:     len(names),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleStats(req Request) {
	idx, completer := s.current()
	s.sendResponse(StatsResponse{
		ID:        req.ID,
		Index:     idx.Stats(),
		Completer: completer.Stats(),
		Requests:  s.requests.Load(),
	})
}

func (s *Server) handleRebuild(ctx context.Context, req Request) {
	if s.rebuild == nil {
		s.sendError(req.ID, "rebuild is not available", 500)
		return
	}

	start := time.Now()
	idx, err := s.rebuild(ctx)
	if err != nil {
		s.log.Errorf("Rebuild failed: %v", err)
		s.sendError(req.ID, fmt.Sprintf("rebuild failed: %v", err), 500)
		return
	}
	s.Swap(idx)
	elapsed := time.Since(start)

	s.log.Infof("Rebuilt index: %d keys, %d records in %v", idx.Keys(), idx.Len(), elapsed)
	s.sendResponse(RebuildResponse{
		ID:        req.ID,
		Status:    "ok",
		Keys:      idx.Keys(),
		Records:   idx.Len(),
		TimeTaken: elapsed.Microseconds(),
	})
}

// Swap replaces the active index. In-flight lookups finish on the old one.
func (s *Server) Swap(idx *index.Index) {
	completer := suggest.FromIndex(idx)
	s.mu.Lock()
	s.idx = idx
	s.completer = completer
	s.mu.Unlock()
}

// sendResponse encodes a response to the output stream
func (s *Server) sendResponse(response any) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}
