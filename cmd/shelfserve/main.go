// Copyright 2025 The ShelfServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Shelfserve serves storefront product search: relevance-ranked matching,
price, genre and feature filters, sorting, paging, autocomplete and a short
recent-search history.

# Usage

Serve MessagePack IPC over stdin/stdout:

	shelfserve serve

Also serve the JSON API, reloading the catalog when it changes:

	shelfserve serve --http --addr 127.0.0.1:8080 --watch

One-off query from the shell:

	shelfserve search hades --genre 独立 --tag 手柄支持 --sort price_asc

Interactive browser for debugging the listing:

	shelfserve repl

# Configuration

The TOML config is read from --config, then ~/.config/shelfserve/config.toml,
and is created with defaults when missing:

	[search]
	fuzzy_threshold = 0.8
	page_size = 12
	default_sort = "popularity"

	[history]
	capacity = 5
	path = "history"

	[catalog]
	path = "data/catalog.json"
	watch = true

	[http]
	addr = "127.0.0.1:8080"
	requests_per_minute = 600

An empty history path keeps recent searches in memory for the life of the
process. A relative path is placed under the config dir.

# IPC Protocol

Requests and responses are MessagePack maps, one after another:

	{"id": "r1", "op": "search", "q": "hades", "genres": ["独立"], "page": 1}
	{"id": "r2", "op": "suggest", "q": "eld", "l": 5}

See package server for the full set of operations.
*/
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "shelfserve"
	gh      = "https://github.com/bastiangx/shelfserve"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
