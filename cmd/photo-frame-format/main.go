// cmd/photo-frame-format/main.go
package main

import (
	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Flush()

	// Execute CLI
	cli.Execute()
}
