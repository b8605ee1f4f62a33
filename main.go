// SPDX-License-Identifier: MPL-2.0

package main

import cmd "gpudrv-cli/cmd/gpudrv"

func main() {
	cmd.Execute()
}
