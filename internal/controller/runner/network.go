// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/eminwux/dreap/internal/firewall"
	intmodel "github.com/eminwux/dreap/internal/modelhub"
)

type NamespaceResult string

const (
	NamespaceRemoved NamespaceResult = "removed"
	// NamespaceStale is a handle file left behind after its namespace mount was gone.
	NamespaceStale  NamespaceResult = "stale-handle-removed"
	NamespaceAbsent NamespaceResult = "absent"
	NoSandboxKey    NamespaceResult = "no-sandbox-key"
)

// NetworkOutcome reports what ReclaimNetwork did. Firewall pruning failures are carried
// in PruneErr and never fail the reclamation.
type NetworkOutcome struct {
	Namespace   NamespaceResult
	NamespaceID string
	RulesPruned int
	PruneErr    error
}

func (o NetworkOutcome) String() string {
	var ns string
	switch o.Namespace {
	case NamespaceRemoved:
		ns = "namespace " + o.NamespaceID + " removed"
	case NamespaceStale:
		ns = "stale namespace handle " + o.NamespaceID + " removed"
	case NamespaceAbsent:
		ns = "namespace " + o.NamespaceID + " already absent"
	default:
		ns = "no network namespace"
	}
	if o.PruneErr != nil {
		return fmt.Sprintf("%s, firewall prune failed: %v", ns, o.PruneErr)
	}
	return fmt.Sprintf("%s, %d firewall rule(s) pruned", ns, o.RulesPruned)
}

// NetworkPruneOutcome reports the runtime-level network cleanup.
type NetworkPruneOutcome struct {
	AppNetworkRemoved bool
	Pruned            []string
}

// ReclaimNetwork deletes the container's namespace handle and prunes tagged firewall rules.
// The prune runs whether or not a namespace exists.
func (r *Exec) ReclaimNetwork(ctx context.Context, record intmodel.ContainerRecord) (NetworkOutcome, error) {
	outcome := NetworkOutcome{Namespace: NoSandboxKey, NamespaceID: record.NamespaceID()}

	var nsErr error
	if outcome.NamespaceID != "" {
		outcome.Namespace = NamespaceAbsent
		if r.deps.Netns.Exists(outcome.NamespaceID) {
			live := r.deps.Netns.IsNamespace(outcome.NamespaceID)
			if err := r.deps.Netns.Delete(outcome.NamespaceID); err != nil {
				nsErr = fmt.Errorf("delete namespace %s: %w", outcome.NamespaceID, err)
			} else if live {
				outcome.Namespace = NamespaceRemoved
			} else {
				outcome.Namespace = NamespaceStale
			}
		}
	}

	if strings.TrimSpace(r.opts.FirewallTag) != "" {
		pruned, err := firewall.Prune(ctx, r.deps.Firewall, r.opts.FirewallTag)
		outcome.RulesPruned = pruned
		outcome.PruneErr = err
		if err != nil {
			r.logger.WarnContext(ctx, "firewall prune failed", "tag", r.opts.FirewallTag, "err", err)
		}
	}
	return outcome, nsErr
}

// PruneNetworkResources removes the application network and then unused networks.
func (r *Exec) PruneNetworkResources(ctx context.Context) (NetworkPruneOutcome, error) {
	var outcome NetworkPruneOutcome
	if name := strings.TrimSpace(r.opts.AppNetwork); name != "" {
		removed, err := r.deps.Docker.RemoveNetwork(ctx, name)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to remove application network", "network", name, "err", err)
		}
		outcome.AppNetworkRemoved = removed
	}
	pruned, err := r.deps.Docker.PruneNetworks(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.Pruned = pruned
	return outcome, nil
}
