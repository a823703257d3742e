/*
 * Copyright 2025 The DocuLink Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doculink-team/doculink/server"
	"github.com/doculink-team/doculink/server/ai"
	"github.com/doculink-team/doculink/server/backend/broadcast"
	"github.com/doculink-team/doculink/server/backend/database/mongo"
	"github.com/doculink-team/doculink/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagLogLevel string

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoDatabase          string
	mongoPingTimeout       time.Duration

	redisAddr     string
	redisPassword string

	aiAPIKey  string
	aiBaseURL string

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start DocuLink server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					Database:          mongoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			if redisAddr != "" {
				conf.Redis = &broadcast.Config{
					Addr:     redisAddr,
					Password: redisPassword,
				}
			}

			if aiAPIKey != "" {
				conf.AI = &ai.Config{
					APIKey:  aiAPIKey,
					BaseURL: aiBaseURL,
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			d, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := d.Start(); err != nil {
				return err
			}

			if code := handleSignal(d); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(d *server.DocuLink) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-d.ShutdownCh():
		// doculink is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := d.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.BlobDir,
		"blob-dir",
		"",
		"Directory for snapshot blob storage. Empty keeps blobs in memory.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.BlobBaseURL,
		"blob-base-url",
		server.DefaultBlobBaseURL,
		"Base URL of signed download links",
	)
	cmd.Flags().StringVar(
		&conf.Backend.BlobSecretKey,
		"blob-secret-key",
		"",
		"Key used to sign download links",
	)
	cmd.Flags().StringVar(
		&conf.Backend.DownloadURLTTL,
		"blob-download-url-ttl",
		server.DefaultDownloadURLTTL,
		"Lifetime of signed download links",
	)
	cmd.Flags().StringVar(
		&conf.Backend.PresenceStaleThreshold,
		"presence-stale-threshold",
		conf.Backend.PresenceStaleThreshold,
		"How long a presence record may go without an update before it is hidden",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		5*time.Second,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoDatabase,
		"mongo-database",
		server.DefaultMongoDatabase,
		"DocuLink's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		5*time.Second,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&redisAddr,
		"redis-addr",
		"",
		"Redis address for cross-node event relay. Empty disables the relay.",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Redis password",
	)
	cmd.Flags().StringVar(
		&aiAPIKey,
		"ai-api-key",
		"",
		"API key of the AI text services. Empty disables them.",
	)
	cmd.Flags().StringVar(
		&aiBaseURL,
		"ai-base-url",
		ai.DefaultBaseURL,
		"Endpoint of the OpenAI-compatible API",
	)

	rootCmd.AddCommand(cmd)
}
