package queue

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"
	"time"
)

func TestPushPopOrder(t *testing.T) {
	q := New(1)

	go func() {
		for _, c := range []string{"a", "bb", "ccc"} {
			if !q.Push([]byte(c)) {
				t.Error("push failed")
			}
		}
		q.Close()
	}()

	for _, want := range []string{"a", "bb", "ccc"} {
		chunk, ok := q.Pop()
		if !ok {
			t.Fatal("queue closed early")
		}
		if string(chunk) != want {
			t.Errorf("got %q, want %q", chunk, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected closed queue")
	}
}

func TestGracefulCloseDrains(t *testing.T) {
	q := New(4)
	q.Push([]byte("one"))
	q.Push([]byte("two"))
	q.Close()

	if chunk, ok := q.Pop(); !ok || string(chunk) != "one" {
		t.Fatal("expected buffered chunk after close")
	}
	if chunk, ok := q.Pop(); !ok || string(chunk) != "two" {
		t.Fatal("expected buffered chunk after close")
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected closed queue after drain")
	}
}

func TestAbortDiscardsBuffered(t *testing.T) {
	q := New(4)
	q.Push([]byte("one"))
	q.Push([]byte("two"))
	q.Abort()

	if _, ok := q.Pop(); ok {
		t.Error("expected no chunks after abort")
	}
	if !q.Aborted() {
		t.Error("expected Aborted")
	}
}

func TestAbortUnblocksProducer(t *testing.T) {
	q := New(1)
	q.Push([]byte("fill"))

	pushed := make(chan bool)
	go func() {
		pushed <- q.Push([]byte("blocked"))
	}()

	q.Abort()

	select {
	case ok := <-pushed:
		if ok {
			t.Error("push on aborted queue reported success")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("producer still blocked after abort")
	}
}

func TestAbortUnblocksConsumer(t *testing.T) {
	q := New(1)

	popped := make(chan bool)
	go func() {
		_, ok := q.Pop()
		popped <- ok
	}()

	q.Abort()

	select {
	case ok := <-popped:
		if ok {
			t.Error("pop on aborted queue reported a chunk")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer still blocked after abort")
	}
}

func TestAbortIdempotent(t *testing.T) {
	q := New(1)
	q.Abort()
	q.Abort()
	q.Close()
	if q.Push([]byte("x")) {
		t.Error("push after abort succeeded")
	}
}

func TestReader(t *testing.T) {
	q := New(4)
	q.Push([]byte("hello "))
	q.Push([]byte(""))
	q.Push([]byte("world"))
	q.Close()

	b, err := ioutil.ReadAll(NewReader(q))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte("hello world")) {
		t.Errorf("got %q", b)
	}
}

func TestReaderByte(t *testing.T) {
	q := New(4)
	q.Push([]byte("ab"))
	q.Push([]byte("c"))
	q.Close()

	r := NewReader(q)
	got := []byte{}
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, b)
	}
	if string(got) != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestReaderAborted(t *testing.T) {
	q := New(4)
	q.Push([]byte("partial"))
	q.Abort()

	_, err := ioutil.ReadAll(NewReader(q))
	if err != ErrAborted {
		t.Errorf("got %v, want ErrAborted", err)
	}

	if _, err := NewReader(q).ReadByte(); err != ErrAborted {
		t.Errorf("got %v, want ErrAborted", err)
	}
}
