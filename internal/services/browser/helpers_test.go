package browser

import (
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cbredeem/internal/common"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func testBrowserConfig() common.BrowserConfig {
	return common.NewDefaultConfig().Browser
}
