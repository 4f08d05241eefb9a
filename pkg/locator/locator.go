// Package locator describes how to find an element on screen.
package locator

import (
	"fmt"
	"strings"
)

// Strategy is a W3C/Appium locator strategy name as sent on the wire.
type Strategy string

// Supported strategies.
const (
	StrategyID              Strategy = "id"
	StrategyXPath           Strategy = "xpath"
	StrategyAccessibilityID Strategy = "accessibility id"
	StrategyClassName       Strategy = "class name"
	StrategyUiAutomator     Strategy = "-android uiautomator"
	StrategyIOSPredicate    Strategy = "-ios predicate string"
)

// Locator is an immutable (strategy, selector) pair.
type Locator struct {
	Strategy Strategy
	Selector string
}

// ID locates by resource id (Android) or name (iOS).
func ID(id string) Locator { return Locator{StrategyID, id} }

// XPath locates by XPath expression.
func XPath(expr string) Locator { return Locator{StrategyXPath, expr} }

// AccessibilityID locates by content-desc (Android) or accessibility identifier (iOS).
func AccessibilityID(id string) Locator { return Locator{StrategyAccessibilityID, id} }

// ClassName locates by widget class.
func ClassName(name string) Locator { return Locator{StrategyClassName, name} }

// UiAutomator locates with a UiSelector expression (Android only).
func UiAutomator(expr string) Locator { return Locator{StrategyUiAutomator, expr} }

// IOSPredicate locates with an NSPredicate string (iOS only).
func IOSPredicate(expr string) Locator { return Locator{StrategyIOSPredicate, expr} }

// Text locates any element whose text attribute equals text exactly.
func Text(text string) Locator {
	return XPath("//*[@text=" + quoteXPath(text) + "]")
}

// TextIn locates an element of the given widget class whose text equals
// text, e.g. TextIn("android.widget.TextView", "Item 1").
func TextIn(class, text string) Locator {
	return XPath("//" + class + "[@text=" + quoteXPath(text) + "]")
}

// IsZero reports whether l has no selector.
func (l Locator) IsZero() bool {
	return l.Strategy == "" || l.Selector == ""
}

// String renders the locator the way errors and logs show it,
// e.g. "By.id: com.example:id/button1".
func (l Locator) String() string {
	return fmt.Sprintf("By.%s: %s", l.Strategy, l.Selector)
}

// quoteXPath returns s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a value holding both quote kinds is built with concat().
func quoteXPath(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
