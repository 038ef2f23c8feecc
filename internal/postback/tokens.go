// Package postback implements the token-substitution and firing subsystem:
// template resolution, outbound HTTP dispatch, and attempt logging.
package postback

import (
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Context carries the click/conversion attributes available to template tokens.
type Context struct {
	TransactionID string
	Goal          string
	Name          string
	Email         string
	Phone         string
	OfferID       int64
	OfferName     string
	ClickID       int64
	Sub1          string
	Sub2          string
	Sub3          string
	Sub4          string
	Sub5          string
	Payout        string
	Revenue       string
	IP            string
	UserAgent     string
	Referer       string
}

// Resolver expands bracketed template tokens. The clock and random source are
// injectable so resolution is deterministic under test.
type Resolver struct {
	now  func() time.Time
	intn func(n int) int
}

// NewResolver returns a Resolver backed by the real clock and random source.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now, intn: rand.Intn}
}

// Resolve replaces every recognized {token} in the template with its value from
// the context. Replacement is literal, not regex: unrecognized bracketed tokens
// pass through unchanged, and missing context values substitute the empty
// string. Time and random tokens are computed at resolution time.
func (r *Resolver) Resolve(template string, c Context) string {
	now := r.now()

	replacer := strings.NewReplacer(
		"{transaction_id}", c.TransactionID,
		"{goal}", c.Goal,
		"{name}", url.QueryEscape(c.Name),
		"{email}", url.QueryEscape(c.Email),
		"{phone}", url.QueryEscape(c.Phone),
		"{offer_id}", formatID(c.OfferID),
		"{offer_name}", url.QueryEscape(c.OfferName),
		"{click_id}", formatID(c.ClickID),
		"{sub1}", url.QueryEscape(c.Sub1),
		"{sub2}", url.QueryEscape(c.Sub2),
		"{sub3}", url.QueryEscape(c.Sub3),
		"{sub4}", url.QueryEscape(c.Sub4),
		"{sub5}", url.QueryEscape(c.Sub5),
		"{payout}", c.Payout,
		"{revenue}", c.Revenue,
		"{timestamp}", strconv.FormatInt(now.Unix(), 10),
		"{unix_timestamp}", strconv.FormatInt(now.Unix(), 10),
		"{date}", now.Format("2006-01-02"),
		"{datetime}", now.Format("2006-01-02 15:04:05"),
		"{ip}", c.IP,
		"{user_agent}", url.QueryEscape(c.UserAgent),
		"{referer}", url.QueryEscape(c.Referer),
		"{random}", strconv.Itoa(100000+r.intn(900000)),
	)

	return replacer.Replace(template)
}

// Resolve expands a template using the real clock and random source.
func Resolve(template string, c Context) string {
	return NewResolver().Resolve(template, c)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
