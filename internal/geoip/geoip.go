// 包 geoip：访问者 IP → 国家，供前端初始定位
package geoip

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"

	"passport-map/internal/countrycode"
	"passport-map/internal/logger"
)

var (
	ErrDisabled = errors.New("geoip disabled")
	ErrBadIP    = errors.New("invalid ip")
	ErrNotFound = errors.New("country not found")
)

// Location：定位结果，Code3 与地图几何的编码一致
type Location struct {
	IP    string `json:"ip"`
	Code2 string `json:"code2"`
	Code3 string `json:"code3"`
	Name  string `json:"name"`
}

// Locator：mmdb 只读句柄；nil 值表示未配置
type Locator struct {
	db *geoip2.Reader
}

// Open：路径为空视为关闭；打开失败返回 error 由调用方决定是否降级
func Open(path string) (*Locator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrDisabled
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	logMetadata(path, db.Metadata())
	return &Locator{db: db}, nil
}

func logMetadata(path string, md maxminddb.Metadata) {
	logger.L().Info("geoip_open",
		"path", path,
		"type", md.DatabaseType,
		"ip_version", md.IPVersion,
		"nodes", md.NodeCount,
		"built", time.Unix(int64(md.BuildEpoch), 0).UTC().Format(time.DateOnly),
	)
}

// Country：查询 IP 所在国家
func (l *Locator) Country(ip string) (Location, error) {
	if l == nil || l.db == nil {
		return Location{}, ErrDisabled
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Location{}, ErrBadIP
	}
	rec, err := l.db.Country(parsed)
	if err != nil {
		return Location{}, err
	}
	code2 := strings.ToUpper(rec.Country.IsoCode)
	if code2 == "" {
		return Location{}, ErrNotFound
	}
	code3, ok := countrycode.Alpha3(code2)
	if !ok {
		return Location{}, ErrNotFound
	}
	return Location{IP: parsed.String(), Code2: code2, Code3: code3, Name: rec.Country.Names["en"]}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
