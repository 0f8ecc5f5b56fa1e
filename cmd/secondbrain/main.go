// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/walteh/secondbrain/cmd/secondbrain/opts"
	"github.com/walteh/secondbrain/pkg/log"

	_ "github.com/walteh/secondbrain/pkg/remote/github"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := opts.Default()
	err := newRootCmd(o).ExecuteContext(ctx)
	if err != nil {
		log.NewReporter(os.Stderr, zerolog.Nop()).Error(err)
	}
	stop()
	os.Exit(exitCode(err))
}
