package rtnl

import (
	"context"
	"errors"
	"syscall"
	"testing"
)

func drain(s *ReplyStream) []ReplyFrame {
	var out []ReplyFrame
	for s.Next() {
		out = append(out, s.Frame())
	}
	return out
}

func TestReplies_DropsForeignSequence(t *testing.T) {
	conn := &mockConn{queue: [][]byte{
		append(
			frame(TypeNewLink, FlagMulti, 99, ifinfo(9, 0)),
			frame(TypeNewLink, FlagMulti, 5, ifinfo(1, 0))...,
		),
		append(frame(TypeNewLink, FlagMulti, 5, ifinfo(2, 0)), doneFrame(5)...),
	}}

	s := Replies(context.Background(), conn, 5)
	frames := drain(s)
	if err := s.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", s.Dropped())
	}
	if s.Next() {
		t.Error("Next() after end should return false")
	}
}

func TestReplies_KernelError(t *testing.T) {
	conn := &mockConn{queue: [][]byte{
		append(frame(TypeNewLink, FlagMulti, 1, ifinfo(1, 0)), errorFrame(1, int32(syscall.EPERM))...),
	}}

	s := Replies(context.Background(), conn, 1)
	frames := drain(s)
	if len(frames) != 1 {
		t.Errorf("got %d frames before error, want 1", len(frames))
	}
	var ke *KernelError
	if !errors.As(s.Err(), &ke) {
		t.Fatalf("Err() = %v, want *KernelError", s.Err())
	}
	if !errors.Is(s.Err(), syscall.EPERM) {
		t.Errorf("Err() = %v, want EPERM", s.Err())
	}
}

func TestReplies_AckEndsStream(t *testing.T) {
	conn := &mockConn{queue: [][]byte{errorFrame(3, 0)}}
	s := Replies(context.Background(), conn, 3)
	if frames := drain(s); len(frames) != 0 {
		t.Errorf("got %d frames, want 0", len(frames))
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestReplies_DumpInterrupted(t *testing.T) {
	conn := &mockConn{queue: [][]byte{
		append(frame(TypeNewRoute, FlagMulti|FlagDumpIntr, 2, rtmsg(FamilyInet, 0, TableMain, 0, 0, 1)), doneFrame(2)...),
	}}
	s := Replies(context.Background(), conn, 2)
	drain(s)
	if !errors.Is(s.Err(), ErrDumpInterrupted) {
		t.Errorf("Err() = %v, want ErrDumpInterrupted", s.Err())
	}
}

func TestReplies_Timeout(t *testing.T) {
	conn := &mockConn{queue: [][]byte{frame(TypeNewLink, FlagMulti, 1, ifinfo(1, 0))}}
	s := Replies(context.Background(), conn, 1)
	frames := drain(s)
	if len(frames) != 1 {
		t.Errorf("got %d frames, want 1", len(frames))
	}
	var te *TimeoutError
	if !errors.As(s.Err(), &te) {
		t.Errorf("Err() = %v, want *TimeoutError", s.Err())
	}
}

func TestReplies_UnparseableDatagram(t *testing.T) {
	bad := frame(TypeNewLink, FlagMulti, 1, ifinfo(1, 0))
	nativeEndian.PutUint32(bad[0:4], 4096)
	conn := &mockConn{queue: [][]byte{bad}}

	s := Replies(context.Background(), conn, 1)
	drain(s)
	var de *DecodeError
	if !errors.As(s.Err(), &de) {
		t.Errorf("Err() = %v, want *DecodeError", s.Err())
	}
}

func TestReplies_SingleFrameReply(t *testing.T) {
	conn := &mockConn{queue: [][]byte{frame(TypeNewLink, 0, 1, ifinfo(1, 0))}}
	s := Replies(context.Background(), conn, 1)
	if frames := drain(s); len(frames) != 1 {
		t.Errorf("got %d frames, want 1", len(frames))
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}
