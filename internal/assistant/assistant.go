// Package assistant implements the support assistant as a deterministic
// rule table: ordered keyword patterns mapped to canned responses, first
// match wins. No inference happens here, which keeps every reply
// independently testable.
package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/mjfrontdev/store/internal/domain"
)

// Rule maps a set of trigger keywords to one canned response. A rule
// matches when any keyword appears in the lowercased message.
type Rule struct {
	Intent   string
	Keywords []string
	Response string
}

// DefaultRules covers the supported support intents, with Persian and
// English trigger keywords.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:   "status",
			Keywords: []string{"وضعیت", "status"},
			Response: "وضعیت سفارش شما در بالا نمایش داده شده است. اگر سوال خاصی دارید، بفرمایید.",
		},
		{
			Intent:   "delivery",
			Keywords: []string{"زمان", "delivery"},
			Response: "زمان تحویل معمولاً 2-3 روز کاری است. برای اطلاعات دقیق‌تر، با پشتیبانی تماس بگیرید.",
		},
		{
			Intent:   "cancel",
			Keywords: []string{"لغو", "cancel"},
			Response: "برای لغو سفارش، لطفاً با پشتیبانی تماس بگیرید یا از طریق پنل کاربری اقدام کنید.",
		},
		{
			Intent:   "change",
			Keywords: []string{"تغییر", "change"},
			Response: "برای تغییر آدرس یا اطلاعات سفارش، با پشتیبانی تماس بگیرید.",
		},
		{
			Intent:   "return",
			Keywords: []string{"بازگشت", "return"},
			Response: "برای بازگشت کالا، لطفاً با پشتیبانی تماس بگیرید تا راهنمایی‌های لازم را دریافت کنید.",
		},
	}
}

const fallbackResponse = "متوجه نشدم. لطفاً سوال خود را واضح‌تر بپرسید یا با پشتیبانی تماس بگیرید."

// OrderLookup resolves an order number mentioned in a message.
type OrderLookup interface {
	SearchOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
}

type Assistant struct {
	rules    []Rule
	fallback string
	orders   OrderLookup
}

// New builds an assistant over the given rules; a nil lookup disables
// order resolution.
func New(rules []Rule, orders OrderLookup) *Assistant {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Assistant{rules: rules, fallback: fallbackResponse, orders: orders}
}

// Reply returns the canned response of the first matching rule, or the
// fallback when nothing matches.
func (a *Assistant) Reply(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range a.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return rule.Response
			}
		}
	}
	return a.fallback
}

// Match returns the matched rule intent, or "" for the fallback.
func (a *Assistant) Match(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range a.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return rule.Intent
			}
		}
	}
	return ""
}

var orderNumberPattern = regexp.MustCompile(`(?i)\bORD-[A-Z0-9-]+\b|\b\d{4,}\b`)

// ExtractOrderNumber pulls an order reference out of free text: either an
// ORD-prefixed number or a bare numeric id of at least four digits.
func ExtractOrderNumber(message string) (string, bool) {
	match := orderNumberPattern.FindString(message)
	if match == "" {
		return "", false
	}
	return strings.ToUpper(match), true
}

// LookupOrder resolves an order mentioned in the message through the API.
// ok is false when the message carries no order reference or no lookup is
// configured.
func (a *Assistant) LookupOrder(ctx context.Context, message string) (order *domain.Order, ok bool, err error) {
	if a.orders == nil {
		return nil, false, nil
	}
	number, found := ExtractOrderNumber(message)
	if !found {
		return nil, false, nil
	}
	order, err = a.orders.SearchOrder(ctx, number)
	if err != nil {
		return nil, true, err
	}
	return order, true, nil
}
