//go:build linux

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// epollTimeoutMS bounds each epoll_wait so cancellation is noticed promptly.
const epollTimeoutMS = 200

// watchStopKey waits on the given evdev devices until keyCode is pressed on
// any of them (then calls stop) or ctx is canceled.
//
// One goroutine multiplexes all devices through epoll instead of one blocking
// reader per device.
func watchStopKey(ctx context.Context, paths []string, keyCode int, stop func(), logger *slog.Logger) error {
	if len(paths) == 0 {
		return nil
	}

	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open stop device %s: %w (run as root or add user to 'input' group)", p, err)
		}
		files = append(files, f)
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fdToFile := make(map[int]*os.File, len(files))
	for _, f := range files {
		fd := int(f.Fd())
		fdToFile[fd] = f

		event := unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
		}
	}

	const maxEvents = 16
	epollEvents := make([]unix.EpollEvent, maxEvents)
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	logger.Debug("stop key armed", "devices", paths, "key_code", keyCode)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, epollEvents, epollTimeoutMS)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			f := fdToFile[fd]

			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				// Losing the stop device is not a reason to stop the session.
				logger.Warn("stop device error/hangup", "device", f.Name())
				_ = unix.EpollCtl(epfd, unix.EPOLL_CTL_DEL, fd, nil)
				continue
			}

			if _, err := f.Read(buf); err != nil {
				logger.Warn("stop device read failed", "device", f.Name(), "error", err)
				continue
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				continue
			}

			if isStopKey(ev, keyCode) {
				logger.Info("stop key pressed", "device", f.Name(), "key_code", keyCode)
				stop()
				return nil
			}
		}
	}
}
