// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package inbox

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/wya/fault"
	"github.com/bitmark-inc/wya/share"
)

const (
	queueSize     = 10
	acceptTimeout = time.Minute
)

// Configuration - a block of configuration data
// this is read from the configuration file
type Configuration struct {
	File string `gluamapper:"file" json:"file"`
}

// Acceptor - what to do with each link
type Acceptor interface {
	AcceptInvitation(ctx context.Context, url string) (*share.Acceptance, error)
}

// Inbox - background process watching the drop file
type Inbox struct {
	log      *logger.L
	filePath string
	watcher  *fsnotify.Watcher
	acceptor Acceptor
	queue    chan string

	// only touched by Run
	offset  int64
	partial []byte

	sync.Mutex
	pending map[string]struct{}
}

// New - watch the file, creating it if necessary; existing content
// is ignored
func New(configuration *Configuration, acceptor Acceptor) (*Inbox, error) {
	log := logger.New("inbox")

	filePath, err := filepath.Abs(filepath.Clean(configuration.File))
	if nil != err {
		return nil, err
	}

	f, err := os.OpenFile(filePath, os.O_RDONLY|os.O_CREATE, 0600)
	if nil != err {
		return nil, err
	}
	info, err := f.Stat()
	f.Close()
	if nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	// the directory, so that replacing the file is seen
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	log.Infof("watching: %q", filePath)

	return &Inbox{
		log:      log,
		filePath: filePath,
		watcher:  watcher,
		acceptor: acceptor,
		queue:    make(chan string, queueSize),
		offset:   info.Size(),
		pending:  make(map[string]struct{}),
	}, nil
}

// Run - read new lines on every change until shutdown
func (in *Inbox) Run(args interface{}, shutdown <-chan struct{}) {
	log := in.log
	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go in.accept(ctx, done)

	name := filepath.Base(in.filePath)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-in.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Base(event.Name) != name {
				continue loop
			}
			if 0 != event.Op&(fsnotify.Remove|fsnotify.Rename) {
				log.Warnf("file: %q removed", in.filePath)
				in.offset = 0
				in.partial = nil
				continue loop
			}
			if 0 == event.Op&(fsnotify.Write|fsnotify.Create) {
				continue loop
			}
			for _, url := range in.scan() {
				err := in.enqueue(url)
				if nil != err {
					log.Infof("link: %q  error: %s", url, err)
				}
			}

		case err, ok := <-in.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}

	in.watcher.Close()
	cancel()
	<-done
	log.Info("stopped")
}

// complete lines appended since the last scan
func (in *Inbox) scan() []string {
	f, err := os.Open(in.filePath)
	if nil != err {
		in.log.Errorf("open: %q  error: %s", in.filePath, err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if nil != err {
		in.log.Errorf("stat: %q  error: %s", in.filePath, err)
		return nil
	}

	// truncated or replaced by a shorter file
	if info.Size() < in.offset {
		in.offset = 0
		in.partial = nil
	}

	_, err = f.Seek(in.offset, io.SeekStart)
	if nil != err {
		in.log.Errorf("seek: %q  error: %s", in.filePath, err)
		return nil
	}

	buffer := bytes.Buffer{}
	n, err := buffer.ReadFrom(f)
	if nil != err {
		in.log.Errorf("read: %q  error: %s", in.filePath, err)
	}
	in.offset += n

	data := append(in.partial, buffer.Bytes()...)
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		in.partial = data
		return nil
	}
	in.partial = append([]byte(nil), data[last+1:]...)

	urls := make([]string, 0)
	for _, line := range strings.Split(string(data[:last]), "\n") {
		line = strings.TrimSpace(line)
		if "" != line {
			urls = append(urls, line)
		}
	}
	return urls
}

// queue a link unless it is already waiting
func (in *Inbox) enqueue(url string) error {
	in.Lock()
	defer in.Unlock()

	if _, ok := in.pending[url]; ok {
		return fault.ErrInvitationAlreadyQueued
	}

	select {
	case in.queue <- url:
		in.pending[url] = struct{}{}
		return nil
	default:
		return fault.ErrOutboundQueueFull
	}
}

// accept links one at a time
func (in *Inbox) accept(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case url := <-in.queue:
			in.acceptOne(ctx, url)

			in.Lock()
			delete(in.pending, url)
			in.Unlock()
		}
	}
}

func (in *Inbox) acceptOne(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(ctx, acceptTimeout)
	defer cancel()

	acceptance, err := in.acceptor.AcceptInvitation(ctx, url)
	if nil != err {
		in.log.Warnf("accept: %q  error: %s", url, err)
		return
	}
	in.log.Infof("accepted: %q  following: %q", url, acceptance.Identity)
}
