package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/energystats/foxgate/pkg/common"
	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/storage"
	"github.com/energystats/foxgate/pkg/types"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the vendor cloud the gateway talks to.
const DefaultBaseURL = "https://www.foxesscloud.com"

const deviceListPageSize = 100

// Network implements API against the vendor cloud. It signs every request,
// decodes the response envelope, classifies failures and recovers once from
// a rejected token by logging in again.
type Network struct {
	client   *http.Client
	baseURL  string
	store    storage.CredentialStore
	signer   *Signer
	catalog  *catalog
	recorder *Recorder
	logins   singleflight.Group

	mu       sync.RWMutex
	settings types.Settings
}

var _ API = (*Network)(nil)

// NewNetwork returns a Network talking to baseURL and keeping its session in
// store. recorder may be nil.
func NewNetwork(baseURL string, store storage.CredentialStore, recorder *Recorder) *Network {
	n := &Network{
		client:   common.HTTPClient(DefaultTimeout),
		baseURL:  baseURL,
		store:    store,
		signer:   NewSigner(),
		recorder: recorder,
		settings: types.Settings{}.WithDefaults(),
	}
	n.catalog = newCatalog(n.fetchCatalog)
	return n
}

// ApplySettings updates the language and timezone sent with requests.
func (n *Network) ApplySettings(ctx context.Context, settings types.Settings) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.settings = settings.WithDefaults()
	return nil
}

func (n *Network) currentSettings() types.Settings {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.settings
}

func (n *Network) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	u, err := url.Parse(n.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + req.Path
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	return http.NewRequestWithContext(ctx, req.Method, u.String(), body)
}

// exchange performs one signed round trip and decodes the envelope. Vendor
// errors are classified without a catalog message.
func (n *Network) exchange(ctx context.Context, req Request, token string) (envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	start := time.Now()
	env, err := n.roundTrip(ctx, req, token)
	metricRequestDuration.WithLabelValues(req.Path).Observe(time.Since(start).Seconds())
	metricRequests.WithLabelValues(req.Path, resultLabel(err)).Inc()
	return env, err
}

func (n *Network) roundTrip(ctx context.Context, req Request, token string) (envelope, error) {
	httpReq, err := n.newHTTPRequest(ctx, req)
	if err != nil {
		return envelope{}, err
	}
	settings := n.currentSettings()
	for k, v := range n.signer.Headers(req, token, settings) {
		httpReq.Header[k] = v
	}
	reqURL := httpReq.URL.String()

	log.Ctx(ctx).DebugContext(ctx, "sending vendor request", slog.String("method", req.Method), slog.String("path", req.Path))

	resp, err := n.client.Do(httpReq)
	if err != nil {
		err = classifyTransport(reqURL, err)
		log.Ctx(ctx).WarnContext(ctx, "vendor request failed", slog.String("path", req.Path), slog.Any("error", err))
		return envelope{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, classifyTransport(reqURL, err)
	}

	rec := Recording{
		Method: req.Method,
		Path:   req.Path,
		URL:    reqURL,
		Status: resp.StatusCode,
		Body:   string(body),
		Time:   time.Now(),
	}
	if req.Path == pathLogin {
		rec.Body = "<redacted>"
	}
	n.recorder.record(rec)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return envelope{}, &Error{Kind: KindBadCredentials, URL: reqURL, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotAcceptable:
		return envelope{}, &Error{Kind: KindRequiresSignature, URL: reqURL, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		log.Ctx(ctx).ErrorContext(ctx, "unexpected vendor status", slog.String("url", reqURL), slog.Int("status", resp.StatusCode))
		return envelope{}, &Error{Kind: KindInvalidResponse, URL: reqURL, Status: resp.StatusCode}
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode vendor response", slog.Any("error", err), slog.String("body", string(body)))
		return envelope{}, &Error{Kind: KindInvalidResponse, URL: reqURL, Status: resp.StatusCode, Err: err}
	}
	if env.Errno != 0 {
		return env, Classify(env.Errno, "")
	}
	return env, nil
}

// send performs a single attempt of req with token and decodes the result
// into dest. A nil dest accepts an empty result.
func (n *Network) send(ctx context.Context, req Request, token string, dest any) error {
	env, err := n.exchange(ctx, req, token)
	if err != nil {
		if gwErr, ok := err.(*Error); ok && gwErr.Kind == KindVendor {
			gwErr.Message = n.catalog.Message(ctx, n.currentSettings().Language, gwErr.Code)
			if gwErr.Message == unknownMessage && env.Msg != "" {
				gwErr.Message = env.Msg
			}
		}
		return err
	}

	if dest == nil {
		return nil
	}
	if !env.hasResult() {
		log.Ctx(ctx).WarnContext(ctx, "vendor response has no result", slog.String("path", req.Path))
		return &Error{Kind: KindMissingData, Message: req.Path}
	}
	if err := json.Unmarshal(env.Result, dest); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode vendor result", slog.String("path", req.Path), slog.Any("error", err))
		return &Error{Kind: KindInvalidResponse, URL: n.baseURL + req.Path, Status: http.StatusOK, Err: err}
	}
	return nil
}

type catalogResult struct {
	Messages catalogMessages `json:"messages"`
}

// fetchCatalog is only ever called by the catalog, its errors are for the
// caller to discard.
func (n *Network) fetchCatalog(ctx context.Context) (catalogMessages, error) {
	token, err := n.store.Token(ctx)
	if err != nil {
		return nil, err
	}
	env, err := n.exchange(ctx, newGetRequest(pathErrorMessages, nil), token)
	if err != nil {
		return nil, err
	}
	if !env.hasResult() {
		return nil, &Error{Kind: KindMissingData, Message: pathErrorMessages}
	}
	var res catalogResult
	if err := json.Unmarshal(env.Result, &res); err != nil {
		return nil, fmt.Errorf("failed to decode error catalog: %w", err)
	}
	return res.Messages, nil
}

// DeviceList returns every device on the account, following pages. The page
// count is fixed by the total reported on the first page.
func (n *Network) DeviceList(ctx context.Context) ([]types.Device, error) {
	var devices []types.Device
	var pages int
	var prevFirst string
	for page := 1; ; page++ {
		var res types.DeviceListPage
		req := newPostRequest(pathDeviceList, map[string]int{
			"currentPage": page,
			"pageSize":    deviceListPageSize,
		})
		if err := n.do(ctx, req, &res); err != nil {
			return nil, fmt.Errorf("device list failed: %w", err)
		}
		if page == 1 {
			pages = (res.Total + deviceListPageSize - 1) / deviceListPageSize
		}
		if len(res.Data) == 0 {
			break
		}
		if page > 1 && res.Data[0].DeviceSN == prevFirst {
			log.Ctx(ctx).WarnContext(ctx, "vendor repeated a device list page", slog.Int("page", page))
			break
		}
		prevFirst = res.Data[0].DeviceSN
		devices = append(devices, res.Data...)
		if len(devices) >= res.Total || page >= pages {
			break
		}
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched device list", slog.Int("devices", len(devices)))
	return devices, nil
}

func (n *Network) DeviceDetail(ctx context.Context, sn string) (types.DeviceDetail, error) {
	if err := requireSN(sn); err != nil {
		return types.DeviceDetail{}, err
	}
	var res types.DeviceDetail
	if err := n.do(ctx, newGetRequest(pathDeviceDetail, url.Values{"sn": {sn}}), &res); err != nil {
		return types.DeviceDetail{}, fmt.Errorf("device detail failed: %w", err)
	}
	return res, nil
}

func (n *Network) RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error) {
	if err := requireSN(sn); err != nil {
		return nil, err
	}
	req := newPostRequest(pathRealQuery, map[string]any{
		"sn":        sn,
		"variables": variables,
	})
	var res []types.RealData
	if err := n.do(ctx, req, &res); err != nil {
		return nil, fmt.Errorf("real query failed: %w", err)
	}
	return res, nil
}

func (n *Network) HistoryQuery(ctx context.Context, sn string, variables []string, begin, end time.Time) ([]types.HistoryData, error) {
	if err := requireSN(sn); err != nil {
		return nil, err
	}
	req := newPostRequest(pathHistoryQuery, map[string]any{
		"sn":        sn,
		"variables": variables,
		"begin":     begin.UnixMilli(),
		"end":       end.UnixMilli(),
	})
	var res []types.HistoryData
	if err := n.do(ctx, req, &res); err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	return res, nil
}

func (n *Network) ReportQuery(ctx context.Context, sn string, dimension types.ReportDimension, date time.Time, variables []string) ([]types.ReportVariable, error) {
	if err := requireSN(sn); err != nil {
		return nil, err
	}
	if !dimension.Valid() {
		log.Ctx(ctx).WarnContext(ctx, "unknown report dimension", slog.String("dimension", string(dimension)))
		return nil, fmt.Errorf("report query failed: %w", invalidParameter())
	}
	body := map[string]any{
		"sn":        sn,
		"dimension": dimension,
		"variables": variables,
		"year":      date.Year(),
	}
	switch dimension {
	case types.ReportDimensionMonth:
		body["month"] = int(date.Month())
	case types.ReportDimensionDay:
		body["month"] = int(date.Month())
		body["day"] = date.Day()
	}
	var res []types.ReportVariable
	if err := n.do(ctx, newPostRequest(pathReportQuery, body), &res); err != nil {
		return nil, fmt.Errorf("report query failed: %w", err)
	}
	return res, nil
}

func (n *Network) GetBatterySOC(ctx context.Context, sn string) (types.BatterySOC, error) {
	if err := requireSN(sn); err != nil {
		return types.BatterySOC{}, err
	}
	var res types.BatterySOC
	if err := n.do(ctx, newGetRequest(pathBatterySOCGet, url.Values{"sn": {sn}}), &res); err != nil {
		return types.BatterySOC{}, fmt.Errorf("get battery soc failed: %w", err)
	}
	return res, nil
}

func (n *Network) SetBatterySOC(ctx context.Context, sn string, soc types.BatterySOC) error {
	if err := requireSN(sn); err != nil {
		return err
	}
	log.Ctx(ctx).InfoContext(ctx, "setting battery soc", slog.String("sn", sn), slog.Int("minSoc", soc.MinSOC), slog.Int("minSocOnGrid", soc.MinSOCOnGrid))
	req := newPostRequest(pathBatterySOCSet, map[string]any{
		"sn":           sn,
		"minSoc":       soc.MinSOC,
		"minSocOnGrid": soc.MinSOCOnGrid,
	})
	if err := n.do(ctx, req, nil); err != nil {
		return fmt.Errorf("set battery soc failed: %w", err)
	}
	return nil
}

func (n *Network) GetSchedulerFlag(ctx context.Context, sn string) (types.SchedulerFlag, error) {
	if err := requireSN(sn); err != nil {
		return types.SchedulerFlag{}, err
	}
	var res types.SchedulerFlag
	if err := n.do(ctx, newPostRequest(pathSchedulerGetFlag, map[string]string{"deviceSN": sn}), &res); err != nil {
		return types.SchedulerFlag{}, fmt.Errorf("get scheduler flag failed: %w", err)
	}
	return res, nil
}

func (n *Network) SetSchedulerFlag(ctx context.Context, sn string, enable bool) error {
	if err := requireSN(sn); err != nil {
		return err
	}
	var flag int
	if enable {
		flag = 1
	}
	log.Ctx(ctx).InfoContext(ctx, "setting scheduler flag", slog.String("sn", sn), slog.Bool("enable", enable))
	req := newPostRequest(pathSchedulerSetFlag, map[string]any{
		"deviceSN": sn,
		"enable":   flag,
	})
	if err := n.do(ctx, req, nil); err != nil {
		return fmt.Errorf("set scheduler flag failed: %w", err)
	}
	return nil
}

func (n *Network) GetSchedule(ctx context.Context, sn string) (types.Schedule, error) {
	if err := requireSN(sn); err != nil {
		return types.Schedule{}, err
	}
	var res types.Schedule
	if err := n.do(ctx, newPostRequest(pathSchedulerGet, map[string]string{"deviceSN": sn}), &res); err != nil {
		return types.Schedule{}, fmt.Errorf("get schedule failed: %w", err)
	}
	return res, nil
}

func (n *Network) SaveSchedule(ctx context.Context, sn string, schedule types.Schedule) error {
	if err := requireSN(sn); err != nil {
		return err
	}
	log.Ctx(ctx).InfoContext(ctx, "saving schedule", slog.String("sn", sn), slog.Int("groups", len(schedule.Groups)))
	req := newPostRequest(pathSchedulerEnable, map[string]any{
		"deviceSN": sn,
		"groups":   schedule.Groups,
	})
	if err := n.do(ctx, req, nil); err != nil {
		return fmt.Errorf("save schedule failed: %w", err)
	}
	return nil
}
