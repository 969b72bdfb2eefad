package gateway

import (
	"net/http"
	"net/url"
	"time"
)

const (
	pathLogin            = "/c/v0/user/login"
	pathErrorMessages    = "/c/v0/errors/message"
	pathDeviceList       = "/op/v0/device/list"
	pathDeviceDetail     = "/op/v0/device/detail"
	pathRealQuery        = "/op/v0/device/real/query"
	pathHistoryQuery     = "/op/v0/device/history/query"
	pathReportQuery      = "/op/v0/device/report/query"
	pathBatterySOCGet    = "/op/v0/device/battery/soc/get"
	pathBatterySOCSet    = "/op/v0/device/battery/soc/set"
	pathSchedulerGetFlag = "/op/v0/device/scheduler/get/flag"
	pathSchedulerSetFlag = "/op/v0/device/scheduler/set/flag"
	pathSchedulerGet     = "/op/v0/device/scheduler/get"
	pathSchedulerEnable  = "/op/v0/device/scheduler/enable"
)

// DefaultTimeout bounds every exchange with the vendor.
const DefaultTimeout = 30 * time.Second

// Request describes one call to the vendor before headers are attached.
// Build it with newGetRequest or newPostRequest and treat it as read-only.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Timeout time.Duration
}

func newGetRequest(path string, query url.Values) Request {
	return Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   query,
		Timeout: DefaultTimeout,
	}
}

func newPostRequest(path string, body any) Request {
	return Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Timeout: DefaultTimeout,
	}
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}
