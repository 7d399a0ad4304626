// Copyright 2026 The OrgDir Authors
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

// Command sweep lists tenant collections that no organization record points
// at, the leftovers of interrupted renames and deletes, and optionally drops
// them. Run it without -drop first and eyeball the list: a collection that
// looks orphaned during an in-flight rename is not.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/orgdir/orgdir/internal/audit"
	"github.com/orgdir/orgdir/internal/config"
	"github.com/orgdir/orgdir/internal/directory"
	"github.com/orgdir/orgdir/internal/identity"
	"github.com/orgdir/orgdir/internal/store/mongodb"
)

func main() {
	drop := flag.Bool("drop", false, "drop the orphaned collections instead of only listing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := mongodb.New(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to document store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close(ctx)

	auditLogger := audit.NewSlogLogger()
	hasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	orgRepo := mongodb.NewOrganizationRepository(db)
	adminRepo := mongodb.NewAdminRepository(db)
	collectionManager := mongodb.NewCollectionManager(db)

	identityService := identity.NewService(adminRepo, hasher, auditLogger)
	directoryService := directory.NewService(orgRepo, collectionManager, identityService, auditLogger)

	orphans, err := directoryService.OrphanCollections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list orphaned collections: %v\n", err)
		os.Exit(1)
	}

	if len(orphans) == 0 {
		fmt.Println("No orphaned tenant collections.")
		return
	}

	for _, name := range orphans {
		if !*drop {
			fmt.Println(name)
			continue
		}
		if err := collectionManager.Drop(ctx, name); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to drop %s: %v\n", name, err)
			os.Exit(1)
		}
		auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeOrphanDropped,
			Resource: name,
		})
		fmt.Printf("Dropped %s\n", name)
	}
}
