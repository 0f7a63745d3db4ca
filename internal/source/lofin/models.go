package lofin

import "encoding/json"

// The QWGJK endpoint wraps records in a two-element array: one element
// carries head metadata (total count, result code), the other the row data.
type envelope struct {
	QWGJK []section `json:"QWGJK"`
}

type section struct {
	Head []headItem        `json:"head,omitempty"`
	Row  []json.RawMessage `json:"row,omitempty"`
}

type headItem struct {
	ListTotalCount *int        `json:"list_total_count,omitempty"`
	Result         *resultInfo `json:"RESULT,omitempty"`
	HasMore        *bool       `json:"has_more,omitempty"`
}

type resultInfo struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE"`
}

// Result codes the API is known to return.
const (
	resultCodeOK     = "INFO-000"
	resultCodeNoData = "INFO-200"
)

// PageResult is the outcome of one page request.
type PageResult struct {
	// Records in server-delivered order, kept as raw JSON.
	Records []json.RawMessage

	// Total is the server-reported total record count for the query, or
	// -1 when this page carried no such hint.
	Total int

	// More is the server's explicit continuation flag. The QWGJK endpoint
	// normally omits it, leaving the pager to fall back on count
	// comparison; when present it is authoritative.
	More *bool
}
