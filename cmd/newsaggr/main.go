// Command newsaggr runs the personalized news aggregation API.
package main

import (
	"github.com/patric-chuzhbe/newsaggr/internal/app"
	"github.com/patric-chuzhbe/newsaggr/internal/logger"
)

func main() {
	a, err := app.New()
	if err != nil {
		panic(err)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Log.Errorw("server stopped with error", "error", err)
		panic(err)
	}
}
