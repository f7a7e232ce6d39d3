package common

import (
	"github.com/ternarybob/banner"
)

// AppName is printed in the startup banner and crash reports
const AppName = "cbredeem"

// PrintBanner displays the application banner
func PrintBanner(version string) {
	banner.PrintSimple(AppName, version)
}
