package hcaptcha

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/body"
)

const (
	ANTICAPTCHA_API_URL = "https://api.anti-captcha.com"

	RESULT_POLL_INTERVAL   = time.Second * 10
	RESULT_POLL_MAX_ROUNDS = 18
)

type createTaskBody struct {
	ClientKey string         `json:"clientKey"`
	Task      map[string]any `json:"task"`
}

type createTaskResponse struct {
	Error            int    `json:"errorId"`
	ErrorDescription string `json:"errorDescription"`
	Task             uint64 `json:"taskId"`
}

type taskResultBody struct {
	ClientKey string `json:"clientKey"`
	Task      uint64 `json:"taskId"`
}

type taskResultResponse struct {
	Error    int    `json:"errorId"`
	Status   string `json:"status"`
	Solution struct {
		Token string `json:"gRecaptchaResponse"`
	} `json:"solution"`
}

func (s *Solver) client() *gentleman.Client {
	if s.api == nil {
		s.api = gentleman.New().BaseURL(ANTICAPTCHA_API_URL)
	}
	return s.api
}

func (s *Solver) createTask(siteURL, siteKey string) (uint64, error) {
	if s.apiKey == "" {
		return 0, errors.New("apiKey is not set")
	}

	payload := &createTaskBody{
		ClientKey: s.apiKey,
		Task: map[string]any{
			"type":       "HCaptchaTaskProxyless",
			"websiteURL": siteURL,
			"websiteKey": siteKey,
		},
	}

	response := new(createTaskResponse)
	if err := s.post("/createTask", payload, response); err != nil {
		return 0, err
	}

	if response.Error != 0 {
		return 0, fmt.Errorf("anticaptcha error %d: %s", response.Error, response.ErrorDescription)
	}

	return response.Task, nil
}

func (s *Solver) getTaskResult(task uint64) (string, error) {
	for i := 0; i < RESULT_POLL_MAX_ROUNDS; i++ {
		<-time.After(RESULT_POLL_INTERVAL)

		payload := &taskResultBody{
			ClientKey: s.apiKey,
			Task:      task,
		}

		response := new(taskResultResponse)
		if err := s.post("/getTaskResult", payload, response); err != nil {
			return "", err
		}

		if response.Error != 0 {
			return "", fmt.Errorf("anticaptcha solve error: %d", response.Error)
		}

		if response.Status == "ready" {
			return response.Solution.Token, nil
		}
	}

	return "", errors.New("anticaptcha task timeout")
}

func (s *Solver) post(path string, payload, response any) error {
	res, err := s.client().Request().
		Method("POST").
		Path(path).
		Use(body.JSON(payload)).
		Send()
	if err != nil {
		return errors.Wrapf(err, "anticaptcha request %s", path)
	}
	if !res.Ok {
		return fmt.Errorf("anticaptcha request %s: status %d", path, res.StatusCode)
	}

	return errors.Wrapf(res.JSON(response), "anticaptcha response %s", path)
}
