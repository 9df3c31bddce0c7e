package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Status tells the client how to read the body of a Response.
type Status uint8

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

type Response struct {
	Status Status
	Body   string
}

func OK(body string) Response {
	return Response{Status: StatusOK, Body: body}
}

func NotFound(body string) Response {
	return Response{Status: StatusNotFound, Body: body}
}

func Error(err error) Response {
	return Response{Status: StatusError, Body: err.Error()}
}

// EncodeResponse serializes a response as
//
//	<status:uint8><body_len:uint32><body>
func EncodeResponse(resp Response) ([]byte, error) {
	respB := []byte(resp.Body)

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(resp.Status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(respB))); err != nil {
		return nil, err
	}

	buf.Write(respB)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (Response, error) {
	var status uint8
	var respLen uint32

	if err := binary.Read(r, binary.BigEndian, &status); err != nil {
		return Response{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &respLen); err != nil {
		return Response{}, err
	}

	buf := make([]byte, respLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Response{}, err
	}

	return Response{Status: Status(status), Body: string(buf)}, nil
}
