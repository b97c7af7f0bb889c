package engine

import (
	"net/http"
	"strconv"
	"strings"
)

// ResponseAudit captures the metadata of one completed request. It exists
// only for the diagnostic sink; nothing is persisted.
type ResponseAudit struct {
	URL           string
	StatusCode    int
	ContentType   string
	ContentLength int64
	Server        string
	Date          string
	Disposition   string
	Cookies       []string
}

func newResponseAudit(resp *http.Response) ResponseAudit {
	a := ResponseAudit{
		URL:           resp.Request.URL.String(),
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Server:        resp.Header.Get("Server"),
		Date:          resp.Header.Get("Date"),
		Disposition:   resp.Header.Get("Content-Disposition"),
	}
	for _, c := range resp.Cookies() {
		a.Cookies = append(a.Cookies, c.Name)
	}
	return a
}

// auditResponse logs the audit at two levels: the basic record at Info, the
// header details at Debug. Diagnostics never affect control flow; with a nil
// logger this is a no-op.
func (e *Engine) auditResponse(resp *http.Response) {
	if e.opts.Logger == nil {
		return
	}

	a := newResponseAudit(resp)
	e.opts.Logger.Info("response audit",
		"url", a.URL,
		"status", a.StatusCode,
		"content_type", a.ContentType,
		"size", formatThousands(a.ContentLength)+" bytes",
	)

	cookies := "None"
	if len(a.Cookies) > 0 {
		cookies = strings.Join(a.Cookies, ",")
	}
	e.opts.Logger.Debug("response detail",
		"server", a.Server,
		"date", a.Date,
		"disposition", a.Disposition,
		"cookies", cookies,
	)
}

// formatThousands renders n with apostrophe thousands separators, the Swiss
// convention: 1234567 -> "1'234'567". An unknown length (-1) renders as 0.
func formatThousands(n int64) string {
	if n < 0 {
		n = 0
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('\'')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
