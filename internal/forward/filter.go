package forward

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"forwardbot/internal/config"
)

// Filter decides whether an incoming source message should be forwarded.
// It combines content-type blocking, keyword blocking, a user blocklist, and
// a document size cap.
type Filter struct {
	contentTypes map[string]struct{}
	keywords     []string
	blockedUsers map[int64]struct{}
	maxFileSize  int64
}

// NewFilter builds a Filter from the forwarding configuration.
func NewFilter(cfg config.ForwardConfig) *Filter {
	f := &Filter{
		contentTypes: make(map[string]struct{}, len(cfg.FilterContentTypes)),
		keywords:     make([]string, 0, len(cfg.KeywordFilter)),
		blockedUsers: make(map[int64]struct{}, len(cfg.BlockedUserIDs)),
		maxFileSize:  cfg.MaxFileSizeMB * 1024 * 1024,
	}
	for _, ct := range cfg.FilterContentTypes {
		f.contentTypes[strings.ToLower(ct)] = struct{}{}
	}
	for _, kw := range cfg.KeywordFilter {
		if kw != "" {
			f.keywords = append(f.keywords, strings.ToLower(kw))
		}
	}
	for _, id := range cfg.BlockedUserIDs {
		f.blockedUsers[id] = struct{}{}
	}
	return f
}

// ShouldForward reports whether the message passes all filters.
// contentType must be the value returned by ContentType for the same message.
func (f *Filter) ShouldForward(msg *models.Message, contentType string) bool {
	if msg == nil {
		return false
	}

	if _, blocked := f.contentTypes[contentType]; blocked {
		return false
	}

	if msg.From != nil {
		if _, blocked := f.blockedUsers[msg.From.ID]; blocked {
			return false
		}
	}

	if msg.Document != nil && f.maxFileSize > 0 && msg.Document.FileSize > f.maxFileSize {
		return false
	}

	if len(f.keywords) > 0 {
		haystack := strings.ToLower(msg.Text)
		if haystack == "" {
			haystack = strings.ToLower(msg.Caption)
		}
		for _, kw := range f.keywords {
			if haystack != "" && strings.Contains(haystack, kw) {
				return false
			}
		}
	}

	return true
}
