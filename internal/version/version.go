// 包 version：构建元数据，通过 -ldflags "-X passport-map/internal/version.Commit=..." 注入
package version

var (
	Commit = "dev"
	Date   = ""
)
