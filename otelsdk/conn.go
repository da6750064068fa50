// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelsdk

import (
	"github.com/z5labs/closer"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// connCache shares one gRPC client connection per collector target.
// Connections are registered with the guard as they are dialed, before
// the providers using them, so the guard's reverse close order shuts
// providers down while their connection is still usable.
type connCache struct {
	guard *closer.Closer
	conns map[string]*grpc.ClientConn
}

func (c *connCache) getOrDial(target string) (*grpc.ClientConn, error) {
	cc, ok := c.conns[target]
	if ok {
		return cc, nil
	}

	cc, err := grpc.NewClient(
		target,
		// TODO: support secure transport credentials
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}

	closer.Register(c.guard, closer.CloseFunc(cc.Close))
	if c.conns == nil {
		c.conns = make(map[string]*grpc.ClientConn)
	}
	c.conns[target] = cc
	return cc, nil
}
