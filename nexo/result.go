package nexo

import "encoding/json"

// Result is the outcome code of a response.
type Result string

const (
	ResultSuccess Result = "Success"
	ResultFailure Result = "Failure"
	ResultPartial Result = "Partial"
	// ResultUnknown stands in for any code this package does not recognize.
	ResultUnknown Result = "Unknown"
)

// ParseResult maps a wire code to a Result. Unrecognized codes map to
// ResultUnknown so processor extensions do not break decoding.
func ParseResult(code string) Result {
	switch r := Result(code); r {
	case ResultSuccess, ResultFailure, ResultPartial:
		return r
	default:
		return ResultUnknown
	}
}

// Response is the outcome block of a payment response.
type Response struct {
	Result             Result `json:"Result"`
	ErrorCondition     string `json:"ErrorCondition,omitempty"`
	AdditionalResponse string `json:"AdditionalResponse,omitempty"`

	// RawResult is the code exactly as received.
	RawResult string `json:"-"`
}

// UnmarshalJSON keeps the received code in RawResult and maps it to a
// known Result, falling back to ResultUnknown.
func (r *Response) UnmarshalJSON(data []byte) error {
	type plain Response
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Response(p)
	r.RawResult = string(p.Result)
	r.Result = ParseResult(r.RawResult)
	return nil
}

// MarshalJSON writes RawResult in place of ResultUnknown so unrecognized
// codes survive a decode/encode pass.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	p := plain(r)
	if p.Result == ResultUnknown && p.RawResult != "" {
		p.Result = Result(p.RawResult)
	}
	return json.Marshal(p)
}
