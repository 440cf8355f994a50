// Copyright 2025 Zintix Labs
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

// asymcal 命令列工具：擬合、套用與評估非對稱 beta 機率校準，或啟動 HTTP 服務。
//
//	asymcal fit train.csv --save model.yaml
//	asymcal predict scores.csv --model model.yaml
//	asymcal evaluate holdout.csv --bins 20
//	asymcal serve --addr :5808
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version 由 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
