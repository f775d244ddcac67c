package snitch

import (
	"fmt"
	"net/http"
	"time"
)

func OK(id string) error {
	return New(id).OK()
}

func Error(id string, err error) error {
	return New(id).Error(err)
}

type Snitcher struct {
	id     string
	client *http.Client
}

func New(id string) *Snitcher {
	return &Snitcher{id, &http.Client{Timeout: 10 * time.Second}}
}

func (sn *Snitcher) OK() error {
	resp, err := sn.client.Get("https://nosnch.in/" + sn.id)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("snitch returned %s", resp.Status)
	}
	return nil
}

func (sn *Snitcher) Error(err error) error {
	if err != nil {
		return nil
	}
	return sn.OK()
}
