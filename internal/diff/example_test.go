// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff_test

import (
	"fmt"

	"github.com/jeranaias/rigagent/internal/diff"
)

func ExampleCompute() {
	before := "a\nb\nc\n"
	after := "a\nB\nc\n"

	d := diff.Compute("greet.txt", before, after)
	fmt.Println(d.Summary())
	fmt.Print(d.Unified())
	// Output:
	// modify +1 -1
	// --- a/greet.txt
	// +++ b/greet.txt
	// @@ -1,3 +1,3 @@
	//  a
	// -b
	// +B
	//  c
}

func ExampleFileDiff_Summary() {
	d := diff.Compute("notes.md", "", "# Notes\n\nFirst entry.\n")
	fmt.Println(d.Summary())
	// Output:
	// create +3
}
