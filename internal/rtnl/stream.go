package rtnl

import "context"

// ReplyStream yields the reply frames of one request. It is finite and
// cannot be restarted.
//
//	s := Replies(ctx, conn, seq)
//	for s.Next() {
//		f := s.Frame()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
type ReplyStream struct {
	ctx  context.Context
	conn Conn
	seq  uint32

	pending     []ReplyFrame
	frame       ReplyFrame
	err         error
	done        bool
	interrupted bool
	dropped     int
}

// Replies starts reading the replies to the request with sequence seq.
func Replies(ctx context.Context, conn Conn, seq uint32) *ReplyStream {
	return &ReplyStream{ctx: ctx, conn: conn, seq: seq}
}

// Next advances to the next data frame. It returns false once the stream
// has ended, either at the terminal done frame or on the first error.
// Frames carrying a different sequence number are dropped.
func (s *ReplyStream) Next() bool {
	for !s.done {
		if len(s.pending) == 0 {
			b, err := s.conn.Receive(s.ctx)
			if err != nil {
				s.fail(err)
				return false
			}
			frames, err := ParseFrames(b)
			if err != nil {
				s.fail(err)
				return false
			}
			s.pending = frames
			continue
		}

		f := s.pending[0]
		s.pending = s.pending[1:]
		if f.Seq != s.seq {
			s.dropped++
			continue
		}
		if f.Flags&FlagDumpIntr != 0 {
			s.interrupted = true
		}

		switch f.Type {
		case TypeNoop:
			continue
		case TypeDone:
			if err := frameError(f); err != nil {
				s.fail(err)
				return false
			}
			s.finish()
			return false
		case TypeError:
			if err := frameError(f); err != nil {
				s.fail(err)
				return false
			}
			// errno 0 is an acknowledgement.
			s.finish()
			return false
		case TypeOverrun:
			s.fail(ErrOverrun)
			return false
		}

		s.frame = f
		if f.Flags&FlagMulti == 0 {
			s.finish()
		}
		return true
	}
	return false
}

// Frame returns the frame produced by the last successful Next.
func (s *ReplyStream) Frame() ReplyFrame { return s.frame }

// Err returns the error that ended the stream, if any. A dump the kernel
// flagged as interrupted ends with ErrDumpInterrupted.
func (s *ReplyStream) Err() error { return s.err }

// Dropped is the number of frames discarded for a sequence mismatch.
func (s *ReplyStream) Dropped() int { return s.dropped }

func (s *ReplyStream) finish() {
	s.done = true
	if s.interrupted && s.err == nil {
		s.err = ErrDumpInterrupted
	}
}

func (s *ReplyStream) fail(err error) {
	s.done = true
	if s.err == nil {
		s.err = err
	}
	s.pending = nil
}
