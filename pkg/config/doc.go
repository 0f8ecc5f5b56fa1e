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

/*
Package config loads secondbrain settings.

	            +-------------+
	            |   Config    |
	            | (defaults)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Reads .secondbrain.{yaml,yml,json,hcl} when present
- Starts from defaults, so every field is optional
- Validates limits, timeouts and exclude globs

🔑 Credentials:
The access token never lives in a file. Token reads it from the environment
variable named by token_env, falling back to GITHUB_TOKEN.

🔍 Example:

	cfg, err := config.Find(ctx, ".")
	if err != nil {
		return err
	}
	token, _ := cfg.Token(os.Getenv)
*/
package config
