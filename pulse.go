// Package pulse provides a schema-agnostic sales analytics engine.
// Drop in any order export and get KPIs, alerts and churn scores.
//
// Usage:
//
//	import "github.com/spektr-org/pulse/engine"
//
//	a, err := engine.Analyze(tbl,
//	    engine.WithDeclineThreshold(15),
//	    engine.WithCurrency("SGD "),
//	)
//
// The engine takes a table (loaded by the helpers package from CSV, Excel,
// SQL or MongoDB), discovers which columns hold dates, customers, products
// and revenue, and returns a render-ready Analysis.
//
// The optional Gemini summary lives in the narrator package.
// The engine never calls any external service; all computation is local.
package pulse
