package backend

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
)

// StreamSessionEvents subscribes to the live session event stream and pumps
// decoded (event, data) pairs into handler until the stream ends. It blocks
// for the life of the stream.
//
// Failure contract: a 401 terminates through the global unauthorized handler;
// any other non-OK response or body read error fires onError exactly once and
// ends the pump. A server-side close (io.EOF) counts as a disconnection
// fault too: the stream is expected to stay open until the subscriber
// aborts, so the server hanging up is never a clean end. There is no
// automatic reconnect, the caller owns retry. Cancelling ctx is a clean,
// intentional termination and never reaches onError.
func (c *Client) StreamSessionEvents(ctx context.Context, sessionID string, handler func(event, data string), onError func(error)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil // aborted before/while connecting
		}
		err = errors.Wrap(err, "connecting event stream")
		if onError != nil {
			onError(err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.notifyUnauthorized()
		return errors.WithMessage(core.ErrUnauthorized, "event stream")
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{Code: resp.StatusCode, Body: string(raw)}
		if onError != nil {
			onError(serr)
		}
		return serr
	}

	dec := NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				handler(ev.Name, ev.Data)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil // cooperative abort, not a fault
			}
			err = errors.Wrap(err, "reading event stream")
			if onError != nil {
				onError(err)
			}
			return err
		}
	}
}
