// Copyright 2026 Quellwerk Systems
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


package tenant

import "errors"

var (
	// ErrUnknownTenant is returned when a tenant id is not registered.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrInvalidTenantConfig indicates a tenant configuration file failed
	// validation at load time.
	ErrInvalidTenantConfig = errors.New("invalid tenant configuration")

	// ErrDuplicateTenant indicates two configuration files declare the
	// same tenant id.
	ErrDuplicateTenant = errors.New("duplicate tenant id")

	// ErrNoTenants indicates the configuration directory held no tenant files.
	ErrNoTenants = errors.New("no tenant configurations found")
)
