// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package channel

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestFIFO(t *testing.T) {
	RegisterTestingT(t)

	ch := New[int](3)
	w, r := ch.Writer(), ch.Reader()
	for i := 0; i < 3; i++ {
		Expect(w.Write(i, 0)).To(Succeed())
	}
	Expect(ch.Len()).To(Equal(3))
	for i := 0; i < 3; i++ {
		value, err := r.Read(0)
		Expect(err).To(BeNil())
		Expect(value).To(Equal(i))
	}
}

func TestFullAndEmptyTimeouts(t *testing.T) {
	RegisterTestingT(t)

	ch := New[string](1)
	Expect(ch.Write("a", 0)).To(Succeed())
	Expect(ch.Write("b", 0)).To(Equal(ErrTimeout))

	start := time.Now()
	Expect(ch.Write("b", 20*time.Millisecond)).To(Equal(ErrTimeout))
	Expect(time.Since(start)).To(BeNumerically(">=", 20*time.Millisecond))

	value, err := ch.Read(time.Second)
	Expect(err).To(BeNil())
	Expect(value).To(Equal("a"))

	_, err = ch.Read(0)
	Expect(err).To(Equal(ErrTimeout))
	_, err = ch.Read(10 * time.Millisecond)
	Expect(err).To(Equal(ErrTimeout))
}

func TestCloseUnblocksReader(t *testing.T) {
	RegisterTestingT(t)

	ch := New[int](4)
	result := make(chan error, 1)
	go func() {
		_, err := ch.Read(-1)
		result <- err
	}()

	Consistently(result, 50*time.Millisecond).ShouldNot(Receive())
	Expect(ch.Close()).To(BeTrue())
	Eventually(result).Should(Receive(Equal(ErrClosed)))
	Expect(ch.Close()).To(BeFalse())
	Expect(ch.IsClosed()).To(BeTrue())
}

func TestCloseUnblocksWriter(t *testing.T) {
	RegisterTestingT(t)

	ch := New[int](1)
	Expect(ch.Write(1, -1)).To(Succeed())
	result := make(chan error, 1)
	go func() {
		result <- ch.Write(2, -1)
	}()

	Consistently(result, 50*time.Millisecond).ShouldNot(Receive())
	ch.Close()
	Eventually(result).Should(Receive(Equal(ErrClosed)))
}

func TestClosedChannel(t *testing.T) {
	RegisterTestingT(t)

	ch := New[int](2)
	Expect(ch.Write(1, 0)).To(Succeed())
	ch.Close()

	// queued events are discarded
	_, err := ch.Read(0)
	Expect(err).To(Equal(ErrClosed))
	Expect(ch.Write(2, time.Second)).To(Equal(ErrClosed))
	Expect(ch.Reader().IsClosed()).To(BeTrue())
	Expect(ch.Writer().IsClosed()).To(BeTrue())
}

func TestMultipleProducers(t *testing.T) {
	RegisterTestingT(t)

	const producers, events = 4, 100
	ch := New[int](8)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < events; i++ {
				Expect(ch.Write(i, -1)).To(Succeed())
			}
		}()
	}

	received := 0
	for received < producers*events {
		_, err := ch.Read(time.Second)
		Expect(err).To(BeNil())
		received++
	}
	wg.Wait()
	Expect(ch.Len()).To(Equal(0))
}
