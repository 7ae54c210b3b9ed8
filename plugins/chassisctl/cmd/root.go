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

package cmd

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/contiv/chassis/plugins/chassis/api"
	"github.com/contiv/chassis/plugins/chassisctl/cmdimpl"
	"github.com/contiv/chassis/plugins/chassisctl/remote"
)

var (
	host           string
	httpConfigFile string
	offline        bool
	debug          bool
)

// client returns HTTP client of the chassis agent REST API.
func client() *remote.HTTPClient {
	c, err := remote.CreateHTTPClient(httpConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create HTTP client: %v\n", err)
		os.Exit(1)
	}
	return c
}

// check prints the error and exits.
func check(err error) {
	if err == nil {
		return
	}
	if replyErr, isReply := err.(*remote.ReplyError); isReply {
		fmt.Fprintf(os.Stderr, "Error (%s): %s\n", replyErr.Code, replyErr.Message)
	} else {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", api.CodeOf(err), err)
	}
	os.Exit(1)
}

func parseID(arg, what string) uint64 {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		check(api.WrapError(api.InvalidParam, err, "invalid %s ID '%s'", what, arg))
	}
	return id
}

var cmdPorts = &cobra.Command{
	Use:   "ports",
	Short: "Shows all configured ports with their state",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.PrintPorts(client(), host, os.Stdout))
	},
}

var cmdPort = &cobra.Command{
	Use:   "port node-id port-id [kind]",
	Short: "Shows one attribute of a port (default: the applied config)",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		var kind api.DataKind
		if len(args) == 3 {
			kind = api.DataKind(args[2])
		}
		check(cmdimpl.PrintPortData(client(), host, parseID(args[0], "node"), parseID(args[1], "port"), kind, os.Stdout))
	},
}

var cmdTransceivers = &cobra.Command{
	Use:   "transceivers",
	Short: "Shows the state of transceivers",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.PrintTransceivers(client(), host, os.Stdout))
	},
}

var cmdEvents = &cobra.Command{
	Use:   "events",
	Short: "Shows recent changes of the port oper state",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.PrintEvents(client(), host, os.Stdout))
	},
}

var cmdPush = &cobra.Command{
	Use:   "push config-file",
	Short: "Applies chassis config on the agent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.PushConfig(client(), host, args[0], os.Stdout))
	},
}

var cmdVerify = &cobra.Command{
	Use:   "verify config-file",
	Short: "Verifies chassis config (on the agent, or locally with --offline)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if offline {
			check(cmdimpl.VerifyOffline(args[0], os.Stdout))
			return
		}
		check(cmdimpl.VerifyConfig(client(), host, args[0], os.Stdout))
	},
}

var cmdSimulate = &cobra.Command{
	Use:   "simulate config-file",
	Short: "Applies chassis config on simulated hardware and shows the resulting ports",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.Simulate(args[0], os.Stdout))
	},
}

var cmdReplay = &cobra.Command{
	Use:   "replay node-id",
	Short: "Re-applies the config of all healthy ports of the node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		check(cmdimpl.ReplayPorts(client(), host, parseID(args[0], "node"), os.Stdout))
	},
}

// Execute will execute the command chassisctl.
func Execute() {
	var rootCmd = &cobra.Command{
		Use: "chassisctl",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print HTTP requests sent to the agent")
	rootCmd.PersistentFlags().StringVar(&host, "host", "localhost", "address of the chassis agent")
	rootCmd.PersistentFlags().StringVar(&httpConfigFile, "http-config", "", "HTTP client config file")
	cmdVerify.Flags().BoolVar(&offline, "offline", false, "verify the config without contacting the agent")

	rootCmd.AddCommand(cmdPorts)
	rootCmd.AddCommand(cmdPort)
	rootCmd.AddCommand(cmdTransceivers)
	rootCmd.AddCommand(cmdEvents)
	rootCmd.AddCommand(cmdPush)
	rootCmd.AddCommand(cmdVerify)
	rootCmd.AddCommand(cmdSimulate)
	rootCmd.AddCommand(cmdReplay)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
