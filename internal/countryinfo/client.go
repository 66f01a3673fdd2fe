// 包 countryinfo：国家补充资料（首都、人口、语言等）的 REST Countries 客户端与缓存
package countryinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"passport-map/internal/logger"
	"passport-map/internal/metrics"
)

// Facts：面板展示字段
type Facts struct {
	Code3      string   `json:"code3"`
	Name       string   `json:"name"`
	Official   string   `json:"official,omitempty"`
	Capital    string   `json:"capital,omitempty"`
	Region     string   `json:"region,omitempty"`
	Subregion  string   `json:"subregion,omitempty"`
	Population int64    `json:"population"`
	Area       float64  `json:"area"`
	Languages  string   `json:"languages,omitempty"`
	Currencies string   `json:"currencies,omitempty"`
	Timezones  []string `json:"timezones,omitempty"`
	MapURL     string   `json:"map_url,omitempty"`
	CoatOfArms string   `json:"coat_of_arms,omitempty"`
}

const fields = "name,capital,region,subregion,population,area,languages,currencies,timezones,maps,coatOfArms"

var ErrEmptyCode = errors.New("empty country code")

// Client：带重试与缓存的查询客户端
type Client struct {
	base  string
	http  *retryablehttp.Client
	cache Cache
}

// NewClient：cache 为空时不缓存；retries 为失败后的重试次数
func NewClient(base string, timeout time.Duration, retries int, cache Cache) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = logger.L()
	// 保留最后一次响应，由 Fetch 统一转成状态码错误
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{base: strings.TrimRight(base, "/"), http: rc, cache: cache}
}

// 文档注释：按三位码查询国家资料
// 背景：面板在每次选择变化时调用；热门国家命中缓存后不再出网
// 约束：非 200 返回 "REST Countries <status>" 错误；响应为数组时取首个元素
func (c *Client) Fetch(ctx context.Context, code3 string) (Facts, error) {
	code3 = strings.ToUpper(strings.TrimSpace(code3))
	if code3 == "" {
		return Facts{}, ErrEmptyCode
	}
	if c.cache != nil {
		if f, ok := c.cache.Get(ctx, code3); ok {
			return f, nil
		}
	}
	u := c.base + "/alpha/" + url.PathEscape(code3) + "?fields=" + fields
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Facts{}, err
	}
	req.Header.Set("Accept", "application/json")
	t0 := time.Now()
	metrics.CountryInfoRequestsTotal.Inc()
	logger.L().Debug("countryinfo_req", "code3", code3)
	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Warn("countryinfo_http_error", "code3", code3, "err", err)
		metrics.CountryInfoFailTotal.Inc()
		return Facts{}, err
	}
	defer resp.Body.Close()
	metrics.CountryInfoDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	if resp.StatusCode != http.StatusOK {
		metrics.CountryInfoFailTotal.Inc()
		logger.L().Warn("countryinfo_status", "code3", code3, "status", resp.StatusCode)
		return Facts{}, fmt.Errorf("REST Countries %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.CountryInfoFailTotal.Inc()
		return Facts{}, err
	}
	f, err := Parse(code3, body)
	if err != nil {
		metrics.CountryInfoFailTotal.Inc()
		logger.L().Warn("countryinfo_decode_error", "code3", code3, "err", err)
		return Facts{}, err
	}
	metrics.CountryInfoSuccessTotal.Inc()
	if c.cache != nil {
		c.cache.Set(ctx, code3, f)
	}
	return f, nil
}

// Parse：从 v3.1 响应体提取字段
func Parse(code3 string, body []byte) (Facts, error) {
	if !gjson.ValidBytes(body) {
		return Facts{}, errors.New("invalid json")
	}
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		doc = doc.Get("0")
		if !doc.Exists() {
			return Facts{}, errors.New("empty result")
		}
	}
	if !doc.IsObject() {
		return Facts{}, errors.New("unexpected payload")
	}
	f := Facts{
		Code3:      code3,
		Name:       doc.Get("name.common").String(),
		Official:   doc.Get("name.official").String(),
		Capital:    doc.Get("capital.0").String(),
		Region:     doc.Get("region").String(),
		Subregion:  doc.Get("subregion").String(),
		Population: doc.Get("population").Int(),
		Area:       doc.Get("area").Float(),
		MapURL:     doc.Get("maps.googleMaps").String(),
		CoatOfArms: doc.Get("coatOfArms.svg").String(),
	}
	if f.CoatOfArms == "" {
		f.CoatOfArms = doc.Get("coatOfArms.png").String()
	}
	var langs, curs []string
	doc.Get("languages").ForEach(func(_, v gjson.Result) bool {
		langs = append(langs, v.String())
		return true
	})
	doc.Get("currencies").ForEach(func(_, v gjson.Result) bool {
		if n := v.Get("name").String(); n != "" {
			curs = append(curs, n)
		}
		return true
	})
	f.Languages = strings.Join(langs, ", ")
	f.Currencies = strings.Join(curs, ", ")
	for _, tz := range doc.Get("timezones").Array() {
		f.Timezones = append(f.Timezones, tz.String())
	}
	return f, nil
}
