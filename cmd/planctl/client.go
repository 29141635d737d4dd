package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient() (*resty.Client, error) {
	if sessionFlag == "" {
		return nil, fmt.Errorf("--session required")
	}
	return resty.New().
		SetBaseURL(apiFlag).
		SetHeader("X-Session-Token", sessionFlag).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute), nil
}

// call runs the request and prints the body; non-2xx is an error with the
// body attached.
func call(req *resty.Request, method, path string) (string, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
